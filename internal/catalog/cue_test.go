package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dynsql/internal/sqltype"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoadCUE(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orders.cue", `
table: orders: {
	id:         "int"
	status:     "str"
	paid:       "bool"
	created_at: "date_time"
}
`)
	writeFile(t, dir, "customers.cue", `
table: customers: {
	id:        "int"
	name:      "str"
	birthday:  "date"
}
`)
	writeFile(t, dir, "README.md", "not a schema")

	src, err := LoadCUE(dir)
	require.NoError(t, err)

	tables, err := src.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "orders"}, tables)

	cols, err := src.Columns(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, map[string]sqltype.DataType{
		"id":         sqltype.Integer,
		"status":     sqltype.String,
		"paid":       sqltype.Boolean,
		"created_at": sqltype.DateTime,
	}, cols)

	cols, err = src.Columns(context.Background(), "customers")
	require.NoError(t, err)
	assert.Equal(t, sqltype.Date, cols["birthday"])
}

func TestLoadCUE_TableSplitAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.cue", `table: orders: id: "int"`)
	writeFile(t, dir, "b.cue", `table: orders: status: "str"`)

	src, err := LoadCUE(dir)
	require.NoError(t, err)

	cols, err := src.Columns(context.Background(), "orders")
	require.NoError(t, err)
	assert.Len(t, cols, 2)
}

func TestLoadCUE_ConflictingDefinitions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.cue", `table: orders: id: "int"`)
	writeFile(t, dir, "b.cue", `table: orders: id: "str"`)

	_, err := LoadCUE(dir)
	require.Error(t, err)
	var se *SchemaError
	assert.ErrorAs(t, err, &se)
}

func TestLoadCUE_Errors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := LoadCUE(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})

	t.Run("no cue files", func(t *testing.T) {
		_, err := LoadCUE(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no CUE files")
	})

	t.Run("unknown data type", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "s.cue", `table: orders: total: "float"`)
		_, err := LoadCUE(dir)
		require.Error(t, err)
		var se *SchemaError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "table.orders.total", se.Field)
		assert.Contains(t, se.Message, "float")
	})

	t.Run("no table field", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "s.cue", `tables: orders: id: "int"`)
		_, err := LoadCUE(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no tables declared")
	})

	t.Run("syntax error", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "s.cue", `table: orders: {`)
		_, err := LoadCUE(dir)
		assert.Error(t, err)
	})
}

func TestParseCUE(t *testing.T) {
	src, err := ParseCUE("inline.cue", []byte(`table: t: {a: "int", b: "bool"}`))
	require.NoError(t, err)

	cols, err := src.Columns(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, sqltype.Boolean, cols["b"])

	_, err = ParseCUE("inline.cue", []byte(`table: t: {a: 1}`))
	assert.Error(t, err)
}
