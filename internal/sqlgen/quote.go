package sqlgen

import "strings"

// quoteIdent wraps an identifier in backticks, doubling embedded backticks.
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// columnRef renders `table`.`attribute`.
func columnRef(table, attribute string) string {
	return quoteIdent(table) + "." + quoteIdent(attribute)
}

// quoteString renders s as a single-quoted SQL string literal.
// The caller has already rejected control characters and invalid UTF-8.
func quoteString(s string, dialect Dialect) string {
	if dialect == DialectMySQL {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
