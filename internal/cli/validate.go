package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dynsql/internal/queryir"
	"github.com/roach88/dynsql/internal/sqlgen"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Source   SourceOptions
	MaxDepth int
}

// ValidationIssue is one problem found in a query document.
type ValidationIssue struct {
	Code    string            `json:"code"`
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <query.json|->",
		Short: "Check a query document without generating SQL",
		Long: `Check the structure of a JSON query document.

Reports every structural problem at once: empty connectives, exists
clauses without a subquery, between without a secondary value, excessive
nesting. Table, column and literal checks need a schema; pass --db or
--schema to run them too.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	addSourceFlags(cmd, &opts.Source)
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", queryir.DefaultMaxDepth, "maximum where-tree nesting depth")

	return cmd
}

func runValidate(opts *ValidateOptions, docPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := readDocument(docPath, cmd.InOrStdin())
	if err != nil {
		return reportError(formatter, err)
	}
	doc, err := queryir.ParseJSON(data)
	if err != nil {
		return reportError(formatter, &CommandError{Code: ErrCodeBadDocument, Message: err.Error()})
	}

	q, err := queryir.DecodeValue(doc)
	if err != nil {
		var qe *queryir.Error
		if errors.As(err, &qe) {
			return outputValidationErrors(formatter, []*queryir.Error{qe})
		}
		return reportError(formatter, err)
	}

	result := queryir.Validate(q, opts.MaxDepth)
	if !result.Valid {
		return outputValidationErrors(formatter, result.Errors)
	}
	formatter.VerboseLog("structure ok")

	if opts.Source.DB != "" || opts.Source.SchemaDir != "" {
		source, closer, err := openSource(&opts.Source)
		if err != nil {
			return reportError(formatter, err)
		}
		defer closer.Close()

		gen := sqlgen.New(source, sqlgen.Options{
			MaxDepth: opts.MaxDepth,
			Logger:   newLogger(opts.RootOptions, cmd.ErrOrStderr()),
		})
		if _, err := gen.GenerateQuery(cmd.Context(), q); err != nil {
			var qe *queryir.Error
			if errors.As(err, &qe) {
				return outputValidationErrors(formatter, []*queryir.Error{qe})
			}
			return reportError(formatter, &CommandError{Code: ErrCodeDBFailed, Message: err.Error()})
		}
		formatter.VerboseLog("schema checks ok")
	}

	if opts.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}
	return formatter.Success("✓ Query valid")
}

func outputValidationErrors(f *OutputFormatter, errs []*queryir.Error) error {
	issues := make([]ValidationIssue, 0, len(errs))
	for _, e := range errs {
		issues = append(issues, ValidationIssue{
			Code:    QueryErrorCode(e.Kind),
			Kind:    string(e.Kind),
			Message: e.Error(),
			Details: e.Details(),
		})
	}

	if f.Format == "json" {
		_ = f.Error(issues[0].Code, fmt.Sprintf("%d validation error(s)", len(issues)), ValidationResult{
			Valid:  false,
			Errors: issues,
		})
	} else {
		fmt.Fprintf(f.Writer, "✗ %d validation error(s)\n", len(issues))
		for _, issue := range issues {
			fmt.Fprintf(f.Writer, "  [%s] %s\n", issue.Code, issue.Message)
		}
	}

	codes := make([]string, 0, len(issues))
	for _, issue := range issues {
		codes = append(codes, issue.Code)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed: %s", strings.Join(codes, ", ")))
}
