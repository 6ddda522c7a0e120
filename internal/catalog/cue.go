package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/dynsql/internal/sqltype"
)

// SchemaError is a problem in a CUE schema definition.
type SchemaError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *SchemaError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadCUE reads every .cue file under dir and builds a StaticSource.
//
// Tables are declared under the top-level "table" field, one struct per
// table, one data type token per column:
//
//	table: orders: {
//		id:         "int"
//		status:     "str"
//		created_at: "date_time"
//	}
//
// Files are unified, so a table may be split across files as long as the
// column types agree.
func LoadCUE(dir string) (*StaticSource, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scan schema directory: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	root := ctx.CompileString("{}")
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		v := ctx.CompileBytes(data, cue.Filename(path))
		if err := v.Err(); err != nil {
			return nil, formatCUEError(err)
		}
		root = root.Unify(v)
	}
	if err := root.Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	schema, err := parseSchema(root)
	if err != nil {
		return nil, err
	}
	return NewStaticSource(schema), nil
}

// ParseCUE builds a StaticSource from a single CUE document.
func ParseCUE(filename string, src []byte) (*StaticSource, error) {
	v := cuecontext.New().CompileBytes(src, cue.Filename(filename))
	if err := v.Validate(); err != nil {
		return nil, formatCUEError(err)
	}
	schema, err := parseSchema(v)
	if err != nil {
		return nil, err
	}
	return NewStaticSource(schema), nil
}

func parseSchema(root cue.Value) (Schema, error) {
	tablesVal := root.LookupPath(cue.ParsePath("table"))
	if !tablesVal.Exists() {
		return nil, &SchemaError{Field: "table", Message: "no tables declared", Pos: root.Pos()}
	}

	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	schema := make(Schema)
	for iter.Next() {
		table := iter.Label()
		cols, err := parseColumns(table, iter.Value())
		if err != nil {
			return nil, err
		}
		schema[table] = cols
	}
	return schema, nil
}

func parseColumns(table string, v cue.Value) (map[string]sqltype.DataType, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, &SchemaError{
			Field:   "table." + table,
			Message: "table must be a struct of column types",
			Pos:     v.Pos(),
		}
	}

	cols := make(map[string]sqltype.DataType)
	for iter.Next() {
		col := iter.Label()
		field := "table." + table + "." + col
		typ, err := iter.Value().String()
		if err != nil {
			return nil, &SchemaError{Field: field, Message: "column type must be a string", Pos: iter.Value().Pos()}
		}
		dt, ok := sqltype.ParseDataType(typ)
		if !ok {
			return nil, &SchemaError{
				Field:   field,
				Message: fmt.Sprintf("unknown data type %q", typ),
				Pos:     iter.Value().Pos(),
			}
		}
		cols[col] = dt
	}
	if len(cols) == 0 {
		return nil, &SchemaError{Field: "table." + table, Message: "table has no columns", Pos: v.Pos()}
	}
	return cols, nil
}

// FindCUEFiles walks dir and returns all .cue file paths, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// formatCUEError converts CUE errors to SchemaError with position info.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &SchemaError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return &SchemaError{Field: "cue", Message: first.Error()}
}
