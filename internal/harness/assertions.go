package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/dynsql/internal/queryir"
)

// ExpectationError is reported when an expectation does not hold.
// It includes enough context to debug the failure without rerunning.
type ExpectationError struct {
	Field    string // Expectation that failed: sql, where, error or rows
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *ExpectationError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "expectation failed: %s\n", e.Field)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual:   %s", e.Actual)
	return buf.String()
}

// checkExpectations compares the result with expect.
// Returns one message per failed expectation.
func checkExpectations(expect Expectation, result *Result) []string {
	var failures []string
	add := func(err error) {
		if err != nil {
			failures = append(failures, err.Error())
		}
	}

	if expect.Error != nil {
		add(checkError(expect.Error, result.Err))
		return failures
	}

	if result.Err != nil {
		failures = append(failures, (&ExpectationError{
			Field:    "error",
			Expected: "successful compilation",
			Actual:   result.Err.Error(),
		}).Error())
		return failures
	}

	if expect.SQL != "" && expect.SQL != result.SQL {
		add(&ExpectationError{Field: "sql", Expected: expect.SQL, Actual: result.SQL})
	}
	if expect.Where != "" && expect.Where != result.Where {
		add(&ExpectationError{Field: "where", Expected: expect.Where, Actual: result.Where})
	}
	if expect.Rows != nil && result.Rows >= 0 && *expect.Rows != result.Rows {
		add(&ExpectationError{
			Field:    "rows",
			Expected: fmt.Sprintf("%d rows", *expect.Rows),
			Actual:   fmt.Sprintf("%d rows from %s", result.Rows, result.SQL),
		})
	}

	return failures
}

func checkError(expected *ExpectedError, actual error) error {
	if actual == nil {
		return &ExpectationError{
			Field:    "error",
			Expected: formatExpectedError(expected),
			Actual:   "successful compilation",
		}
	}

	var qe *queryir.Error
	if !errors.As(actual, &qe) {
		return &ExpectationError{Field: "error", Expected: formatExpectedError(expected), Actual: actual.Error()}
	}
	if string(qe.Kind) != expected.Kind || (expected.Path != "" && qe.Path != expected.Path) {
		return &ExpectationError{
			Field:    "error",
			Expected: formatExpectedError(expected),
			Actual:   fmt.Sprintf("%s at %q (%s)", qe.Kind, qe.Path, qe.Message),
		}
	}
	return nil
}

func formatExpectedError(e *ExpectedError) string {
	if e.Path == "" {
		return e.Kind
	}
	return fmt.Sprintf("%s at %q", e.Kind, e.Path)
}
