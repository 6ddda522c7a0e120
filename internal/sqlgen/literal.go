package sqlgen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/dynsql/internal/queryir"
	"github.com/roach88/dynsql/internal/sqltype"
)

var (
	integerPattern  = regexp.MustCompile(`^[+-]?[0-9]+$`)
	datePattern     = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}$`)
	dateTimePattern = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}T[0-9]{2}:[0-9]{2}:[0-9]{2}$`)
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05"
)

var booleanTokens = map[string]string{
	"true": "TRUE", "t": "TRUE", "yes": "TRUE", "y": "TRUE", "1": "TRUE", "on": "TRUE",
	"false": "FALSE", "f": "FALSE", "no": "FALSE", "n": "FALSE", "0": "FALSE", "off": "FALSE",
}

// ValidateLiteral checks raw against the grammar of dt and returns it as a
// SQL literal.
//
// Returns a *queryir.Error of kind ErrInvalidLiteral naming the value and
// the data type when raw does not parse. Path and Key are left for the
// caller to fill in.
func ValidateLiteral(raw string, dt sqltype.DataType, dialect Dialect) (string, error) {
	switch dt {
	case sqltype.Integer:
		if !integerPattern.MatchString(raw) {
			return "", invalidLiteral(raw, dt, "not a base-10 integer")
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return "", invalidLiteral(raw, dt, "integer out of range")
		}
		return strconv.FormatInt(n, 10), nil

	case sqltype.Boolean:
		tok, ok := booleanTokens[strings.ToLower(strings.TrimSpace(raw))]
		if !ok {
			return "", invalidLiteral(raw, dt, "not a boolean token")
		}
		return tok, nil

	case sqltype.Date:
		if !datePattern.MatchString(raw) {
			return "", invalidLiteral(raw, dt, "want YYYY-MM-DD")
		}
		if _, err := time.Parse(dateLayout, raw); err != nil {
			return "", invalidLiteral(raw, dt, "not a calendar date")
		}
		return quoteString(raw, dialect), nil

	case sqltype.DateTime:
		if !dateTimePattern.MatchString(raw) {
			return "", invalidLiteral(raw, dt, "want YYYY-MM-DDTHH:MM:SS")
		}
		if _, err := time.Parse(dateTimeLayout, raw); err != nil {
			return "", invalidLiteral(raw, dt, "not a calendar date and time")
		}
		return quoteString(raw, dialect), nil

	case sqltype.String:
		if !utf8.ValidString(raw) {
			return "", invalidLiteral(raw, dt, "invalid UTF-8")
		}
		for _, r := range raw {
			if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' {
				return "", invalidLiteral(raw, dt, fmt.Sprintf("control character %U", r))
			}
		}
		return quoteString(raw, dialect), nil

	default:
		return "", &queryir.Error{
			Kind:    queryir.ErrUnknownDataType,
			Key:     queryir.KeyDataType,
			Value:   string(dt),
			Message: fmt.Sprintf("unknown data type %q", dt),
		}
	}
}

func invalidLiteral(raw string, dt sqltype.DataType, reason string) *queryir.Error {
	return &queryir.Error{
		Kind:     queryir.ErrInvalidLiteral,
		Value:    raw,
		Expected: string(dt),
		Actual:   strconv.Quote(raw),
		Message:  fmt.Sprintf("invalid value %q for data type %q: %s", raw, dt, reason),
	}
}
