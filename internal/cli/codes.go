package cli

import (
	"errors"
	"fmt"

	"github.com/roach88/dynsql/internal/catalog"
	"github.com/roach88/dynsql/internal/queryir"
)

// Command error codes (exit code 2).
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeScanError    = "E002" // Directory scan error
	ErrCodeNoFiles      = "E003" // No CUE or scenario files found
	ErrCodeSchemaFailed = "E004" // CUE schema failed to load
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeDBFailed     = "E006" // SQLite database could not be opened or read
	ErrCodeWriteFailed  = "E007" // File write error
	ErrCodeBadDocument  = "E008" // Query document is not valid JSON
	ErrCodeUsage        = "E009" // Conflicting or missing flags
)

// Query error codes (exit code 1), one per queryir.ErrorKind.
const (
	ErrCodeMissingKey            = "E201"
	ErrCodeUnknownOperator       = "E202"
	ErrCodeUnknownDataType       = "E203"
	ErrCodeUnknownTable          = "E204"
	ErrCodeUnknownColumn         = "E205"
	ErrCodeTypeMismatch          = "E206"
	ErrCodeInvalidLiteral        = "E207"
	ErrCodeMissingSecondaryValue = "E208"
	ErrCodeEmptyConnective       = "E209"
	ErrCodeInvalidExistsBody     = "E210"
	ErrCodeUnsupportedShape      = "E211"
	ErrCodeUnknownClause         = "E212"
	ErrCodeMaxNestingExceeded    = "E213"
)

var queryErrorCodes = map[queryir.ErrorKind]string{
	queryir.ErrMissingKey:             ErrCodeMissingKey,
	queryir.ErrUnknownOperator:        ErrCodeUnknownOperator,
	queryir.ErrUnknownDataType:        ErrCodeUnknownDataType,
	queryir.ErrUnknownTable:           ErrCodeUnknownTable,
	queryir.ErrUnknownColumn:          ErrCodeUnknownColumn,
	queryir.ErrTypeMismatch:           ErrCodeTypeMismatch,
	queryir.ErrInvalidLiteral:         ErrCodeInvalidLiteral,
	queryir.ErrMissingSecondaryValue:  ErrCodeMissingSecondaryValue,
	queryir.ErrEmptyConnective:        ErrCodeEmptyConnective,
	queryir.ErrInvalidExistsBody:      ErrCodeInvalidExistsBody,
	queryir.ErrUnsupportedClauseShape: ErrCodeUnsupportedShape,
	queryir.ErrUnknownClause:          ErrCodeUnknownClause,
	queryir.ErrMaxNestingExceeded:     ErrCodeMaxNestingExceeded,
}

// QueryErrorCode returns the CLI code for a query error kind.
func QueryErrorCode(kind queryir.ErrorKind) string {
	if code, ok := queryErrorCodes[kind]; ok {
		return code
	}
	return ErrCodeGeneric
}

// CommandError is a failure that stops a command before or outside query
// compilation: missing files, unreadable schema, bad flags.
type CommandError struct {
	Code    string
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// reportError writes err through the formatter and returns the ExitError
// the command should return.
//
// Query errors exit with ExitFailure and carry their diagnostic fields as
// details. Everything else exits with ExitCommandError.
func reportError(f *OutputFormatter, err error) error {
	var qe *queryir.Error
	if errors.As(err, &qe) {
		code := QueryErrorCode(qe.Kind)
		_ = f.Error(code, qe.Error(), qe.Details())
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", code, qe.Error()))
	}

	code := ErrCodeGeneric
	message := err.Error()
	var ce *CommandError
	var se *catalog.SchemaError
	switch {
	case errors.As(err, &ce):
		code, message = ce.Code, ce.Message
	case errors.As(err, &se):
		code = ErrCodeSchemaFailed
	}
	_ = f.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
