package tpch

import (
	"fmt"
	"strconv"

	"github.com/tobsdb/grokit-tools/pkg"
)

// Tables maps each TPC-H relation, in load order, to its dbgen -T flag.
var Tables = pkg.NewInsertSortMap[string, string]().
	Push("region", "r").
	Push("nation", "n").
	Push("customer", "c").
	Push("supplier", "s").
	Push("part", "P").
	Push("partsupp", "S").
	Push("orders", "O").
	Push("lineitem", "L")

// dbgen always writes these as a single file.
var singleTables = pkg.NewSet("region", "nation")

func (s *Settings) striped(table string) bool {
	return s.NumStripes > 1 && !singleTables.Has(table)
}

// Stripes lists the dbgen stripe numbers for table; 0 means unstriped.
func (s *Settings) Stripes(table string) []int {
	if !s.striped(table) {
		return []int{0}
	}
	stripes := make([]int, 0, s.NumStripes)
	for i := 1; i <= s.NumStripes; i++ {
		stripes = append(stripes, i)
	}
	return stripes
}

// GeneratorFile is the pipe dbgen writes a stripe of table into.
func GeneratorFile(table string, stripe int) string {
	if stripe == 0 {
		return table + ".tbl"
	}
	return fmt.Sprintf("%s.tbl.%d", table, stripe)
}

// FilterFile is the pipe the filter script writes a stripe of table into.
func FilterFile(table string, stripe int) string {
	return GeneratorFile(table, stripe) + ".script"
}

// PipeNames returns every named pipe needed to load table.
func (s *Settings) PipeNames(table string) []string {
	names := []string{}
	for _, stripe := range s.Stripes(table) {
		names = append(names, GeneratorFile(table, stripe))
		if s.FilterScript != "" {
			names = append(names, FilterFile(table, stripe))
		}
	}
	return names
}

// GeneratorArgs returns the dbgen arguments producing one stripe of table.
func (s *Settings) GeneratorArgs(table string, stripe int) []string {
	args := []string{"-qf", "-s", strconv.Itoa(s.ScaleFactor), "-b", s.DistsFile()}
	if stripe != 0 {
		args = append(args, "-C", strconv.Itoa(s.NumStripes), "-S", strconv.Itoa(stripe))
	}
	return append(args, "-T", Tables.Get(table))
}
