package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/dynsql/internal/queryir"
	"github.com/roach88/dynsql/internal/sqltype"
)

// ErrTableNotFound is returned (possibly wrapped) by a Source that has no
// table of the requested name.
var ErrTableNotFound = errors.New("table not found")

// Source answers schema questions about the backing database.
type Source interface {
	// Columns returns the typed columns of table.
	// Returns an error wrapping ErrTableNotFound if the table does not exist.
	Columns(ctx context.Context, table string) (map[string]sqltype.DataType, error)
}

// Lister is implemented by sources that can enumerate their tables.
type Lister interface {
	Tables(ctx context.Context) ([]string, error)
}

// Catalog is the table scope of one query compilation.
//
// Not safe for concurrent use; each compilation owns its catalog.
type Catalog struct {
	source Source
	tables map[string]map[string]sqltype.DataType
	order  []string
}

// New creates an empty catalog backed by source.
func New(source Source) *Catalog {
	return &Catalog{
		source: source,
		tables: make(map[string]map[string]sqltype.DataType),
	}
}

// Register confirms the table exists in the source and brings it into scope.
// Registering a table twice is a no-op.
//
// Returns a *queryir.Error of kind ErrUnknownTable if the source has no such
// table. Other source failures are returned wrapped.
func (c *Catalog) Register(ctx context.Context, table string) error {
	if _, ok := c.tables[table]; ok {
		return nil
	}
	if c.source == nil {
		return unknownTable(table)
	}

	cols, err := c.source.Columns(ctx, table)
	if errors.Is(err, ErrTableNotFound) {
		return unknownTable(table)
	}
	if err != nil {
		return fmt.Errorf("load columns of %q: %w", table, err)
	}

	// Copy so a source handing out shared maps can't change our scope.
	scoped := make(map[string]sqltype.DataType, len(cols))
	for name, dt := range cols {
		scoped[name] = dt
	}
	c.tables[table] = scoped
	c.order = append(c.order, table)
	return nil
}

// Lookup returns the declared type of table.attribute.
// The second result is false if the table was not registered or has no
// such column.
func (c *Catalog) Lookup(table, attribute string) (sqltype.DataType, bool) {
	cols, ok := c.tables[table]
	if !ok {
		return "", false
	}
	dt, ok := cols[attribute]
	return dt, ok
}

// IsRegistered reports whether table is in scope.
func (c *Catalog) IsRegistered(table string) bool {
	_, ok := c.tables[table]
	return ok
}

// Tables returns the registered tables in registration order.
func (c *Catalog) Tables() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Source returns the source this catalog registers against.
func (c *Catalog) Source() Source {
	return c.source
}

func unknownTable(table string) *queryir.Error {
	return &queryir.Error{
		Kind:    queryir.ErrUnknownTable,
		Key:     queryir.KeyTable,
		Value:   table,
		Message: fmt.Sprintf("invalid table name %q", table),
	}
}
