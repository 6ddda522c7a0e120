package queryir

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind categorizes query errors.
type ErrorKind string

const (
	// ErrMissingKey indicates a required key is absent from a clause object.
	ErrMissingKey ErrorKind = "MISSING_KEY"

	// ErrUnknownOperator indicates primary_operator is not a known operator token.
	ErrUnknownOperator ErrorKind = "UNKNOWN_OPERATOR"

	// ErrUnknownDataType indicates data_type is not a known data type token.
	ErrUnknownDataType ErrorKind = "UNKNOWN_DATA_TYPE"

	// ErrUnknownTable indicates a table is not registered in the catalog.
	ErrUnknownTable ErrorKind = "UNKNOWN_TABLE"

	// ErrUnknownColumn indicates the table has no such column.
	ErrUnknownColumn ErrorKind = "UNKNOWN_COLUMN"

	// ErrTypeMismatch indicates the declared data_type disagrees with the catalog.
	ErrTypeMismatch ErrorKind = "TYPE_MISMATCH"

	// ErrInvalidLiteral indicates a value does not parse under its data type.
	ErrInvalidLiteral ErrorKind = "INVALID_LITERAL"

	// ErrMissingSecondaryValue indicates a between condition has no second bound.
	ErrMissingSecondaryValue ErrorKind = "MISSING_SECONDARY_VALUE"

	// ErrEmptyConnective indicates an and/or clause with no children.
	ErrEmptyConnective ErrorKind = "EMPTY_CONNECTIVE"

	// ErrInvalidExistsBody indicates exists/not_exists wraps something other than a subquery.
	ErrInvalidExistsBody ErrorKind = "INVALID_EXISTS_BODY"

	// ErrUnsupportedClauseShape indicates a value has the wrong JSON shape for its position.
	ErrUnsupportedClauseShape ErrorKind = "UNSUPPORTED_CLAUSE_SHAPE"

	// ErrUnknownClause indicates a clause object keyed by something other than a connective.
	ErrUnknownClause ErrorKind = "UNKNOWN_CLAUSE"

	// ErrMaxNestingExceeded indicates the where tree is nested deeper than allowed.
	ErrMaxNestingExceeded ErrorKind = "MAX_NESTING_EXCEEDED"
)

// Error describes a failure to decode, validate or compile a query.
//
// Path is the clause path from the document root, e.g.
// "where.or[0].where_condition". Key and Value name the offending field and
// its raw value when there is one. Expected and Actual are filled for shape
// and type disagreements.
type Error struct {
	Kind     ErrorKind
	Path     string
	Key      string
	Value    string
	Expected string
	Actual   string
	Message  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Path != "" {
		fmt.Fprintf(&b, " at %s", e.Path)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Expected != "" || e.Actual != "" {
		fmt.Fprintf(&b, " (expected %s, got %s)", e.Expected, e.Actual)
	}
	return b.String()
}

// Details returns the non-empty diagnostic fields keyed by name.
func (e *Error) Details() map[string]string {
	d := make(map[string]string)
	if e.Path != "" {
		d["path"] = e.Path
	}
	if e.Key != "" {
		d["key"] = e.Key
	}
	if e.Value != "" {
		d["value"] = e.Value
	}
	if e.Expected != "" {
		d["expected"] = e.Expected
	}
	if e.Actual != "" {
		d["actual"] = e.Actual
	}
	return d
}

// IsKind reports whether err is an *Error of the given kind.
// Uses errors.As to handle wrapped errors.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Kind, true
	}
	return "", false
}

// JoinPath appends a key to a clause path.
func JoinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// IndexPath appends a list index to a clause path.
func IndexPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}
