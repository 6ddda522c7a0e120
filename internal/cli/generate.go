package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/dynsql/internal/queryir"
	"github.com/roach88/dynsql/internal/sqlgen"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Source   SourceOptions
	Dialect  string
	MaxDepth int
	Output   string // write SQL to this file instead of stdout
}

// GenerateResult is the JSON payload of a successful generate.
type GenerateResult struct {
	SQL         string   `json:"sql"`
	Where       string   `json:"where,omitempty"`
	Tables      []string `json:"tables"`
	Fingerprint string   `json:"fingerprint"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <query.json|->",
		Short: "Compile a query document to SQL",
		Long: `Compile a JSON query document into a SQL statement.

Tables and columns are checked against the schema given by --db (a SQLite
database) or --schema (a directory of CUE files). Use "-" to read the
document from stdin.

Exit codes:
  0 - SQL generated
  1 - Query rejected
  2 - Command error (missing files, unreadable schema, etc.)

Examples:
  dynsql generate query.json --schema ./schema
  dynsql generate query.json --db shop.db --dialect sqlite
  cat query.json | dynsql generate - --schema ./schema --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	addSourceFlags(cmd, &opts.Source)
	cmd.Flags().StringVar(&opts.Dialect, "dialect", string(sqlgen.DialectMySQL), "string escaping dialect (mysql|sqlite)")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", queryir.DefaultMaxDepth, "maximum where-tree nesting depth")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write SQL to file instead of stdout")

	return cmd
}

func runGenerate(opts *GenerateOptions, docPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	dialect, err := sqlgen.ParseDialect(opts.Dialect)
	if err != nil {
		return reportError(formatter, &CommandError{Code: ErrCodeUsage, Message: err.Error()})
	}
	if opts.MaxDepth <= 0 {
		return reportError(formatter, &CommandError{Code: ErrCodeUsage, Message: fmt.Sprintf("--max-depth must be positive, got %d", opts.MaxDepth)})
	}

	data, err := readDocument(docPath, cmd.InOrStdin())
	if err != nil {
		return reportError(formatter, err)
	}
	doc, err := queryir.ParseJSON(data)
	if err != nil {
		return reportError(formatter, &CommandError{Code: ErrCodeBadDocument, Message: err.Error()})
	}

	source, closer, err := openSource(&opts.Source)
	if err != nil {
		return reportError(formatter, err)
	}
	defer closer.Close()

	gen := sqlgen.New(source, sqlgen.Options{
		Dialect:  dialect,
		MaxDepth: opts.MaxDepth,
		Logger:   newLogger(opts.RootOptions, cmd.ErrOrStderr()),
	})

	result, err := gen.GenerateValue(cmd.Context(), doc)
	if err != nil {
		var qe *queryir.Error
		if !errors.As(err, &qe) {
			err = &CommandError{Code: ErrCodeDBFailed, Message: err.Error()}
		}
		return reportError(formatter, err)
	}

	formatter.VerboseLog("fingerprint=%s tables=%v", result.Fingerprint, result.Tables)

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(result.SQL+"\n"), 0644); err != nil {
			return reportError(formatter, &CommandError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("write output: %v", err)})
		}
		formatter.VerboseLog("wrote %s", opts.Output)
	}

	if opts.Format == "json" {
		return formatter.SuccessWithTrace(GenerateResult{
			SQL:         result.SQL,
			Where:       result.Where,
			Tables:      result.Tables,
			Fingerprint: result.Fingerprint,
		}, result.CompilationID)
	}

	if opts.Output != "" {
		return formatter.SuccessWithTrace(fmt.Sprintf("✓ Wrote SQL to %s", opts.Output), result.CompilationID)
	}
	return formatter.SuccessWithTrace(result.SQL, result.CompilationID)
}
