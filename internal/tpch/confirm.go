package tpch

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/tobsdb/grokit-tools/pkg"
)

var (
	yesAnswers = pkg.NewSet("Y", "y", "yes", "YES", "Yes")
	noAnswers  = pkg.NewSet("N", "n", "no", "NO", "No")
)

// Confirm asks question until it gets a yes or no answer. Running out of
// input counts as no.
func Confirm(in *bufio.Reader, out io.Writer, question string) (bool, error) {
	for {
		fmt.Fprintf(out, "%s (Y/N) --> ", question)
		line, err := in.ReadString('\n')
		answer := strings.TrimSpace(line)
		switch {
		case yesAnswers.Has(answer):
			return true, nil
		case noAnswers.Has(answer):
			return false, nil
		}
		if err == io.EOF {
			fmt.Fprintln(out)
			return false, nil
		}
		if err != nil {
			return false, err
		}
		fmt.Fprintln(out, "Please answer yes or no.")
	}
}
