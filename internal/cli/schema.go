package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dynsql/internal/catalog"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	Source SourceOptions
}

// TableSchema is one table and its typed columns.
type TableSchema struct {
	Name    string         `json:"name"`
	Columns []ColumnSchema `json:"columns"`
}

// ColumnSchema is one column and its data type token.
type ColumnSchema struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema [table...]",
		Short: "Show the tables and column types queries are checked against",
		Long: `Print the tables and typed columns of a schema source.

With no arguments every table is listed. Column types are shown as the
data type tokens a query document uses (int, str, bool, date, date_time).

Examples:
  dynsql schema --db shop.db
  dynsql schema orders customers --schema ./schema --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, args, cmd)
		},
	}

	addSourceFlags(cmd, &opts.Source)

	return cmd
}

func runSchema(opts *SchemaOptions, tables []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	source, closer, err := openSource(&opts.Source)
	if err != nil {
		return reportError(formatter, err)
	}
	defer closer.Close()

	ctx := cmd.Context()
	if len(tables) == 0 {
		lister, ok := source.(catalog.Lister)
		if !ok {
			return reportError(formatter, &CommandError{Code: ErrCodeUsage, Message: "schema source cannot list tables; name them as arguments"})
		}
		tables, err = lister.Tables(ctx)
		if err != nil {
			return reportError(formatter, &CommandError{Code: ErrCodeDBFailed, Message: err.Error()})
		}
	}

	// A catalog gives missing tables the same UNKNOWN_TABLE error a query would.
	cat := catalog.New(source)
	result := make([]TableSchema, 0, len(tables))
	for _, table := range tables {
		if err := cat.Register(ctx, table); err != nil {
			return reportError(formatter, err)
		}
		cols, err := source.Columns(ctx, table)
		if err != nil {
			return reportError(formatter, &CommandError{Code: ErrCodeDBFailed, Message: err.Error()})
		}
		ts := TableSchema{Name: table, Columns: make([]ColumnSchema, 0, len(cols))}
		for name, dt := range cols {
			ts.Columns = append(ts.Columns, ColumnSchema{Name: name, Type: string(dt)})
		}
		sort.Slice(ts.Columns, func(i, j int) bool { return ts.Columns[i].Name < ts.Columns[j].Name })
		result = append(result, ts)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	var b strings.Builder
	for i, ts := range result {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s\n", ts.Name)
		for _, col := range ts.Columns {
			fmt.Fprintf(&b, "  %-20s %s\n", col.Name, col.Type)
		}
	}
	return formatter.Success(strings.TrimSuffix(b.String(), "\n"))
}
