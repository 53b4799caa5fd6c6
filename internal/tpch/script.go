package tpch

import (
	"io"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/valyala/fasttemplate"
)

const bulkloadTemplate = `
USING base;
data = READ FILE "{file}"{striping}
    USING GI: base\CSVReader<"sep"="|">
    ATTRIBUTES FROM {relation}{postfix};

STORE data INTO {relation}{postfix};
`

// Render replaces {tag} placeholders with values. Unknown tags are left
// in place so engine code using braces survives.
func Render(template string, values map[string]string) (string, error) {
	t, err := fasttemplate.NewTemplate(template, "{", "}")
	if err != nil {
		return "", errors.Wrap(err, "invalid template")
	}
	return t.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		if v, ok := values[tag]; ok {
			return w.Write([]byte(v))
		}
		return w.Write([]byte("{" + tag + "}"))
	}), nil
}

// RenderSchema fills the table postfix into the schema creation script.
func (s *Settings) RenderSchema(schema string) (string, error) {
	return Render(schema, map[string]string{"postfix": s.Postfix})
}

// RenderBulkload returns the engine script loading table from its pipes.
func (s *Settings) RenderBulkload(table string) (string, error) {
	file := table + ".tbl"
	striping := ""
	if s.striped(table) {
		striping = " : " + strconv.Itoa(s.NumStripes)
		file += ".%d"
	}
	if s.FilterScript != "" {
		file += ".script"
	}

	return Render(bulkloadTemplate, map[string]string{
		"file":     filepath.Join(s.WorkDir(), file),
		"striping": striping,
		"relation": table,
		"postfix":  s.Postfix,
	})
}
