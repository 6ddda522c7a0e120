package sqlgen

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/dynsql/internal/queryir"
)

// Dialect selects the string-literal escaping rules.
type Dialect string

const (
	// DialectMySQL doubles both quotes and backslashes.
	DialectMySQL Dialect = "mysql"

	// DialectSQLite doubles quotes only; backslash has no meaning in SQLite strings.
	DialectSQLite Dialect = "sqlite"
)

// Dialects lists the supported dialects.
var Dialects = []Dialect{DialectMySQL, DialectSQLite}

// ParseDialect returns the dialect named by s (case-insensitive).
func ParseDialect(s string) (Dialect, error) {
	d := Dialect(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case DialectMySQL, DialectSQLite:
		return d, nil
	case "":
		return DialectMySQL, nil
	default:
		return "", fmt.Errorf("unknown dialect %q (want mysql or sqlite)", s)
	}
}

// Options configures a Generator.
type Options struct {
	// Dialect controls string escaping. Defaults to DialectMySQL.
	Dialect Dialect

	// MaxDepth bounds where-tree nesting. Defaults to queryir.DefaultMaxDepth.
	MaxDepth int

	// Logger receives debug output. Defaults to slog.Default().
	Logger *slog.Logger

	// IDs creates compilation IDs. Defaults to UUIDv7Generator.
	IDs IDGenerator
}

func (o Options) withDefaults() Options {
	if o.Dialect == "" {
		o.Dialect = DialectMySQL
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = queryir.DefaultMaxDepth
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.IDs == nil {
		o.IDs = UUIDv7Generator{}
	}
	return o
}
