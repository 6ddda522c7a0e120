package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runGenerateCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewGenerateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestGenerateWithCUESchema(t *testing.T) {
	out, err := runGenerateCmd(t, "text", writeQuery(t, statusQuery), "--schema", writeSchemaDir(t))
	require.NoError(t, err)
	assert.Equal(t, "SELECT `orders`.`id` FROM `orders` WHERE `orders`.`status` = 'paid'\n", out)
}

func TestGenerateWithDatabase(t *testing.T) {
	doc := `{
	  "select": [],
	  "from": "orders",
	  "where": {
	    "where_condition": {
	      "table": "orders", "attribute": "paid", "data_type": "bool",
	      "primary_operator": "equals", "primary_value": "yes"
	    }
	  }
	}`
	out, err := runGenerateCmd(t, "text", writeQuery(t, doc), "--db", writeDatabase(t), "--dialect", "sqlite")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `orders` WHERE `orders`.`paid` = TRUE\n", out)
}

func TestGenerateJSON(t *testing.T) {
	out, err := runGenerateCmd(t, "json", writeQuery(t, statusQuery), "--schema", writeSchemaDir(t))
	require.NoError(t, err)

	var resp struct {
		Status  string         `json:"status"`
		Data    GenerateResult `json:"data"`
		TraceID string         `json:"trace_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "SELECT `orders`.`id` FROM `orders` WHERE `orders`.`status` = 'paid'", resp.Data.SQL)
	assert.Equal(t, "`orders`.`status` = 'paid'", resp.Data.Where)
	assert.Equal(t, []string{"orders"}, resp.Data.Tables)
	assert.Len(t, resp.Data.Fingerprint, 64)
	assert.NotEmpty(t, resp.TraceID)
}

func TestGenerateFromStdin(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewGenerateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetIn(strings.NewReader(statusQuery))
	cmd.SetArgs([]string{"-", "--schema", writeSchemaDir(t)})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "WHERE `orders`.`status` = 'paid'")
}

func TestGenerateOutputFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "query.sql")
	out, err := runGenerateCmd(t, "text", writeQuery(t, statusQuery), "--schema", writeSchemaDir(t), "-o", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote SQL to")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "SELECT `orders`.`id` FROM `orders` WHERE `orders`.`status` = 'paid'\n", string(data))
}

func TestGenerateDialectEscaping(t *testing.T) {
	doc := `{"select": [], "from": "customers", "where": {"where_condition": {
	  "table": "customers", "attribute": "name", "data_type": "str",
	  "primary_operator": "equals", "primary_value": "O'Brien\\x"}}}`
	queryPath := writeQuery(t, doc)
	schemaDir := writeSchemaDir(t)

	out, err := runGenerateCmd(t, "text", queryPath, "--schema", schemaDir)
	require.NoError(t, err)
	assert.Contains(t, out, `'O''Brien\\x'`)

	out, err = runGenerateCmd(t, "text", queryPath, "--schema", schemaDir, "--dialect", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, `'O''Brien\x'`)
}

func TestGenerateQueryRejected(t *testing.T) {
	doc := `{"select": [], "from": "orders", "where": {"where_condition": {
	  "table": "orders", "attribute": "total", "data_type": "int",
	  "primary_operator": "equals", "primary_value": "abc"}}}`

	out, err := runGenerateCmd(t, "json", writeQuery(t, doc), "--schema", writeSchemaDir(t))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeInvalidLiteral)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidLiteral, resp.Error.Code)

	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "where.where_condition.primary_value", details["path"])
	assert.Equal(t, "int", details["expected"])
}

func TestGenerateUnknownTable(t *testing.T) {
	doc := `{"select": [], "from": "invoices"}`
	out, err := runGenerateCmd(t, "text", writeQuery(t, doc), "--db", writeDatabase(t))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E204]")
}

func TestGenerateCommandErrors(t *testing.T) {
	schemaDir := writeSchemaDir(t)
	queryPath := writeQuery(t, statusQuery)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"no_source", []string{queryPath}, ErrCodeUsage},
		{"both_sources", []string{queryPath, "--schema", schemaDir, "--db", "x.db"}, ErrCodeUsage},
		{"missing_query", []string{"/nonexistent/query.json", "--schema", schemaDir}, ErrCodeNotFound},
		{"missing_db", []string{queryPath, "--db", "/nonexistent/shop.db"}, ErrCodeNotFound},
		{"missing_schema_dir", []string{queryPath, "--schema", "/nonexistent/schema"}, ErrCodeNotFound},
		{"empty_schema_dir", []string{queryPath, "--schema", t.TempDir()}, ErrCodeNoFiles},
		{"bad_dialect", []string{queryPath, "--schema", schemaDir, "--dialect", "oracle"}, ErrCodeUsage},
		{"bad_depth", []string{queryPath, "--schema", schemaDir, "--max-depth", "0"}, ErrCodeUsage},
		{"bad_json", []string{writeQuery(t, `{"select": [`), "--schema", schemaDir}, ErrCodeBadDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runGenerateCmd(t, "text", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.code)
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}

func TestGenerateBrokenSchema(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.cue"), []byte(`table: orders: { id: "float" }`), 0644))

	_, err := runGenerateCmd(t, "text", writeQuery(t, statusQuery), "--schema", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeSchemaFailed)
}

func TestGenerateMaxDepth(t *testing.T) {
	doc := `{"select": [], "from": "orders", "where": {"not": {"not": {"where_condition": {
	  "table": "orders", "attribute": "id", "data_type": "int",
	  "primary_operator": "equals", "primary_value": 1}}}}}`
	queryPath := writeQuery(t, doc)
	schemaDir := writeSchemaDir(t)

	_, err := runGenerateCmd(t, "text", queryPath, "--schema", schemaDir, "--max-depth", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeMaxNestingExceeded)

	out, err := runGenerateCmd(t, "text", queryPath, "--schema", schemaDir, "--max-depth", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "NOT ( NOT ( `orders`.`id` = 1 ) )")
}
