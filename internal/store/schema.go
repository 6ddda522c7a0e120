package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/dynsql/internal/catalog"
	"github.com/roach88/dynsql/internal/sqltype"
)

var (
	_ catalog.Source = (*Store)(nil)
	_ catalog.Lister = (*Store)(nil)
)

// Columns implements catalog.Source.
// Returns an error wrapping catalog.ErrTableNotFound for unknown tables.
func (s *Store) Columns(ctx context.Context, table string) (map[string]sqltype.DataType, error) {
	exists, err := s.tableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", catalog.ErrTableNotFound, table)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, type FROM pragma_table_info(?) ORDER BY cid ASC`, table)
	if err != nil {
		return nil, fmt.Errorf("table info %q: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]sqltype.DataType)
	for rows.Next() {
		var name, declared string
		if err := rows.Scan(&name, &declared); err != nil {
			return nil, fmt.Errorf("scan column of %q: %w", table, err)
		}
		if dt, ok := DataTypeFor(declared); ok {
			cols[name] = dt
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns of %q: %w", table, err)
	}

	return cols, nil
}

// Tables implements catalog.Lister. Internal sqlite_* tables are skipped.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name ASC COLLATE BINARY`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (s *Store) tableExists(ctx context.Context, table string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type IN ('table', 'view') AND name = ?`, table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup table %q: %w", table, err)
	}
	return n > 0, nil
}

// DataTypeFor maps a declared SQLite column type to a data type.
// The second result is false for types with no data type counterpart.
func DataTypeFor(declared string) (sqltype.DataType, bool) {
	t := strings.ToUpper(strings.TrimSpace(declared))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}

	switch {
	case t == "BOOL" || t == "BOOLEAN":
		return sqltype.Boolean, true
	case t == "DATETIME" || strings.HasPrefix(t, "TIMESTAMP"):
		return sqltype.DateTime, true
	case t == "DATE":
		return sqltype.Date, true
	case strings.Contains(t, "INT"):
		return sqltype.Integer, true
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return sqltype.String, true
	default:
		return "", false
	}
}
