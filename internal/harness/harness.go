package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/dynsql/internal/catalog"
	"github.com/roach88/dynsql/internal/queryir"
	"github.com/roach88/dynsql/internal/sqlgen"
	"github.com/roach88/dynsql/internal/sqltype"
	"github.com/roach88/dynsql/internal/store"
	"github.com/roach88/dynsql/internal/testutil"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates every expectation held.
	Pass bool `json:"pass"`

	// SQL is the compiled statement. Empty when compilation failed.
	SQL string `json:"sql,omitempty"`

	// Where is the compiled where fragment.
	Where string `json:"where,omitempty"`

	// Fingerprint is the content-addressed ID of the query document.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Err is the compilation error, if any.
	Err error `json:"-"`

	// Rows is the number of rows returned when the statement was executed.
	// -1 when it was not executed.
	Rows int `json:"rows"`

	// Errors lists the failed expectations.
	Errors []string `json:"errors,omitempty"`
}

// AddError records a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger routes generator logs to logger. Runs are silent by default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// Run compiles the scenario's query and checks the expectations.
//
// Each scenario gets its own schema source; setup scenarios run in a fresh
// in-memory database. A failed expectation is reported in Result, not as an
// error. The error result is for infrastructure failures: unreadable schema,
// failing setup SQL.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	source, st, err := openSource(ctx, scenario)
	if err != nil {
		return nil, err
	}
	if st != nil {
		defer st.Close()
	}

	dialect, err := scenarioDialect(scenario)
	if err != nil {
		return nil, err
	}

	gen := sqlgen.New(source, sqlgen.Options{
		Dialect: dialect,
		Logger:  cfg.logger.With("scenario", scenario.Name),
		IDs:     testutil.NewFixedIDGenerator(scenario.Name),
	})

	result := &Result{Pass: true, Rows: -1}

	res, err := gen.GenerateValue(ctx, scenario.Query)
	if err != nil {
		if _, ok := queryir.KindOf(err); !ok {
			return nil, fmt.Errorf("compile %s: %w", scenario.Name, err)
		}
		result.Err = err
	} else {
		result.SQL = res.SQL
		result.Where = res.Where
		result.Fingerprint = res.Fingerprint
	}

	if err == nil && scenario.Expect.Rows != nil && st != nil {
		n, err := st.CountRows(ctx, res.SQL)
		if err != nil {
			result.AddError(fmt.Sprintf("execute: %v", err))
		} else {
			result.Rows = n
		}
	}

	for _, msg := range checkExpectations(scenario.Expect, result) {
		result.AddError(msg)
	}

	return result, nil
}

// openSource builds the schema source named by the scenario.
// The returned store is non-nil only for setup scenarios.
func openSource(ctx context.Context, scenario *Scenario) (catalog.Source, *store.Store, error) {
	switch {
	case scenario.Setup != "":
		st, err := store.Open(":memory:")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		if err := st.Exec(ctx, scenario.Setup); err != nil {
			st.Close()
			return nil, nil, fmt.Errorf("setup: %w", err)
		}
		return st, st, nil

	case scenario.SchemaDir != "":
		src, err := catalog.LoadCUE(scenario.SchemaDir)
		if err != nil {
			return nil, nil, fmt.Errorf("schema_dir: %w", err)
		}
		return src, nil, nil

	case len(scenario.Schema) > 0:
		schema := make(catalog.Schema, len(scenario.Schema))
		for table, cols := range scenario.Schema {
			schema[table] = make(map[string]sqltype.DataType, len(cols))
			for col, token := range cols {
				dt, ok := sqltype.ParseDataType(token)
				if !ok {
					return nil, nil, fmt.Errorf("schema.%s.%s: unknown data type %q", table, col, token)
				}
				schema[table][col] = dt
			}
		}
		return catalog.NewStaticSource(schema), nil, nil

	default:
		return nil, nil, errors.New("scenario has no schema source")
	}
}

func scenarioDialect(scenario *Scenario) (sqlgen.Dialect, error) {
	if scenario.Dialect == "" && scenario.Setup != "" {
		return sqlgen.DialectSQLite, nil
	}
	return sqlgen.ParseDialect(scenario.Dialect)
}
