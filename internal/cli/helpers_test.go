package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/dynsql/internal/store"
)

const testSchemaCUE = `table: orders: {
	id:          "int"
	customer_id: "int"
	status:      "str"
	total:       "int"
}

table: customers: {
	id:   "int"
	name: "str"
}
`

const testSetupSQL = `
CREATE TABLE orders (id INTEGER PRIMARY KEY, customer_id INTEGER, status TEXT, total INTEGER, paid BOOLEAN);
CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT, created_at DATETIME);
INSERT INTO customers VALUES (1, 'Ada', '2024-01-01 10:00:00');
INSERT INTO orders VALUES (1, 1, 'paid', 100, 1), (2, 1, 'open', 50, 0);
`

// writeSchemaDir creates a temp directory holding one CUE schema file.
func writeSchemaDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shop.cue"), []byte(testSchemaCUE), 0644))
	return dir
}

// writeDatabase creates a SQLite database file with the shop tables.
func writeDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shop.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Exec(context.Background(), testSetupSQL))
	require.NoError(t, st.Close())
	return path
}

// writeQuery writes a query document to a temp file.
func writeQuery(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "query.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}

const statusQuery = `{
  "select": [["orders", "id"]],
  "from": "orders",
  "where": {
    "where_condition": {
      "table": "orders",
      "attribute": "status",
      "data_type": "str",
      "primary_operator": "equals",
      "primary_value": "paid"
    }
  }
}`
