package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/dynsql/internal/catalog"
	"github.com/roach88/dynsql/internal/store"
)

// SourceOptions selects where schema information comes from.
// Exactly one of DB and SchemaDir must be set.
type SourceOptions struct {
	DB        string // SQLite database file, opened read-only
	SchemaDir string // directory of CUE schema files
}

// addSourceFlags registers --db and --schema on cmd.
func addSourceFlags(cmd *cobra.Command, opts *SourceOptions) {
	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite database to read the schema from")
	cmd.Flags().StringVar(&opts.SchemaDir, "schema", "", "directory of CUE schema files")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openSource opens the schema source selected by opts.
// The caller must close the returned closer.
func openSource(opts *SourceOptions) (catalog.Source, io.Closer, error) {
	switch {
	case opts.DB != "" && opts.SchemaDir != "":
		return nil, nil, &CommandError{Code: ErrCodeUsage, Message: "--db and --schema are mutually exclusive"}

	case opts.DB != "":
		if _, err := os.Stat(opts.DB); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, nil, &CommandError{Code: ErrCodeNotFound, Message: fmt.Sprintf("database not found: %s", opts.DB)}
			}
			return nil, nil, &CommandError{Code: ErrCodeDBFailed, Message: err.Error()}
		}
		st, err := store.OpenReadOnly(opts.DB)
		if err != nil {
			return nil, nil, &CommandError{Code: ErrCodeDBFailed, Message: fmt.Sprintf("open database: %v", err)}
		}
		return st, st, nil

	case opts.SchemaDir != "":
		info, err := os.Stat(opts.SchemaDir)
		if err != nil || !info.IsDir() {
			return nil, nil, &CommandError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", opts.SchemaDir)}
		}
		files, err := catalog.FindCUEFiles(opts.SchemaDir)
		if err != nil {
			return nil, nil, &CommandError{Code: ErrCodeScanError, Message: err.Error()}
		}
		if len(files) == 0 {
			return nil, nil, &CommandError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", opts.SchemaDir)}
		}
		src, err := catalog.LoadCUE(opts.SchemaDir)
		if err != nil {
			return nil, nil, &CommandError{Code: ErrCodeSchemaFailed, Message: err.Error()}
		}
		return src, nopCloser{}, nil

	default:
		return nil, nil, &CommandError{Code: ErrCodeUsage, Message: "one of --db or --schema is required"}
	}
}

// readDocument reads a query document from path, or stdin when path is "-".
func readDocument(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, &CommandError{Code: ErrCodeGeneric, Message: fmt.Sprintf("read stdin: %v", err)}
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &CommandError{Code: ErrCodeNotFound, Message: fmt.Sprintf("query file not found: %s", path)}
		}
		return nil, &CommandError{Code: ErrCodeGeneric, Message: fmt.Sprintf("read query file: %v", err)}
	}
	return data, nil
}
