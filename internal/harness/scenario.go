package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/dynsql/internal/queryir"
	"github.com/roach88/dynsql/internal/sqlgen"
	"github.com/roach88/dynsql/internal/sqltype"
)

// Scenario defines one compilation test.
type Scenario struct {
	// Name uniquely identifies this scenario. Used for golden file names.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Dialect selects string escaping (mysql or sqlite).
	// Defaults to sqlite when Setup is given, mysql otherwise.
	Dialect string `yaml:"dialect,omitempty"`

	// Schema declares tables inline: table -> column -> data type token.
	Schema map[string]map[string]string `yaml:"schema,omitempty"`

	// SchemaDir is a directory of CUE schema files.
	// Relative paths are resolved against the scenario file location.
	SchemaDir string `yaml:"schema_dir,omitempty"`

	// Setup is SQL executed on a fresh in-memory SQLite database.
	// The resulting tables are the schema.
	Setup string `yaml:"setup,omitempty"`

	// Query is the query document to compile.
	Query map[string]any `yaml:"query"`

	// Expect holds the expected outcome.
	Expect Expectation `yaml:"expect"`
}

// Expectation specifies the expected compilation outcome.
// Error excludes the other fields.
type Expectation struct {
	// SQL is the exact expected statement.
	SQL string `yaml:"sql,omitempty"`

	// Where is the exact expected where fragment.
	Where string `yaml:"where,omitempty"`

	// Error is the expected failure.
	Error *ExpectedError `yaml:"error,omitempty"`

	// Rows is the expected number of rows returned by the statement.
	// Requires Setup.
	Rows *int `yaml:"rows,omitempty"`
}

// ExpectedError identifies a compilation failure.
type ExpectedError struct {
	// Kind is the error kind, e.g. "INVALID_LITERAL".
	Kind string `yaml:"kind"`

	// Path is the clause path. Empty matches any path.
	Path string `yaml:"path,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.SchemaDir != "" && !filepath.IsAbs(scenario.SchemaDir) {
		scenario.SchemaDir = filepath.Join(filepath.Dir(path), scenario.SchemaDir)
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML. Relative schema_dir paths are kept as
// written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "expected:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and consistent.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Query) == 0 {
		return fmt.Errorf("query is required")
	}

	sources := 0
	if len(s.Schema) > 0 {
		sources++
	}
	if s.SchemaDir != "" {
		sources++
	}
	if s.Setup != "" {
		sources++
	}
	if sources != 1 {
		return fmt.Errorf("exactly one of schema, schema_dir or setup is required")
	}

	for table, cols := range s.Schema {
		for col, token := range cols {
			if _, ok := sqltype.ParseDataType(token); !ok {
				return fmt.Errorf("schema.%s.%s: unknown data type %q", table, col, token)
			}
		}
	}

	if s.Dialect != "" {
		if _, err := sqlgen.ParseDialect(s.Dialect); err != nil {
			return err
		}
	}

	e := s.Expect
	if e.SQL == "" && e.Where == "" && e.Error == nil && e.Rows == nil {
		return fmt.Errorf("expect requires at least one of sql, where, error or rows")
	}
	if e.Error != nil {
		if e.SQL != "" || e.Where != "" || e.Rows != nil {
			return fmt.Errorf("expect.error cannot be combined with sql, where or rows")
		}
		if e.Error.Kind == "" {
			return fmt.Errorf("expect.error: kind is required")
		}
		if !knownErrorKind(queryir.ErrorKind(e.Error.Kind)) {
			return fmt.Errorf("expect.error: unknown kind %q", e.Error.Kind)
		}
	}
	if e.Rows != nil {
		if s.Setup == "" {
			return fmt.Errorf("expect.rows requires setup")
		}
		if *e.Rows < 0 {
			return fmt.Errorf("expect.rows must be non-negative")
		}
	}

	return nil
}

var errorKinds = []queryir.ErrorKind{
	queryir.ErrMissingKey,
	queryir.ErrUnknownOperator,
	queryir.ErrUnknownDataType,
	queryir.ErrUnknownTable,
	queryir.ErrUnknownColumn,
	queryir.ErrTypeMismatch,
	queryir.ErrInvalidLiteral,
	queryir.ErrMissingSecondaryValue,
	queryir.ErrEmptyConnective,
	queryir.ErrInvalidExistsBody,
	queryir.ErrUnsupportedClauseShape,
	queryir.ErrUnknownClause,
	queryir.ErrMaxNestingExceeded,
}

func knownErrorKind(kind queryir.ErrorKind) bool {
	for _, k := range errorKinds {
		if k == kind {
			return true
		}
	}
	return false
}
