package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/dynsql/internal/sqltype"
)

// Schema maps table name → column name → data type.
type Schema map[string]map[string]sqltype.DataType

// StaticSource serves a fixed in-memory schema.
// Safe for concurrent use once built; it is never mutated.
type StaticSource struct {
	schema Schema
}

var (
	_ Source = (*StaticSource)(nil)
	_ Lister = (*StaticSource)(nil)
)

// NewStaticSource creates a source over a copy of schema.
func NewStaticSource(schema Schema) *StaticSource {
	copied := make(Schema, len(schema))
	for table, cols := range schema {
		c := make(map[string]sqltype.DataType, len(cols))
		for name, dt := range cols {
			c[name] = dt
		}
		copied[table] = c
	}
	return &StaticSource{schema: copied}
}

// Columns implements Source.
func (s *StaticSource) Columns(_ context.Context, table string) (map[string]sqltype.DataType, error) {
	cols, ok := s.schema[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return cols, nil
}

// Tables implements Lister. Names are sorted.
func (s *StaticSource) Tables(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(s.schema))
	for name := range s.schema {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
