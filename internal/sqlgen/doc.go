// Package sqlgen compiles query documents into SQL text.
//
// # Pipeline
//
// Generate runs one compilation:
//
//  1. Parse the JSON document and fingerprint it (ir.Fingerprint)
//  2. Decode it into a queryir.Query
//  3. Register the FROM and JOIN tables in a fresh catalog.Catalog
//  4. Check the join conditions against the catalog
//  5. Compile the where tree
//  6. Compile the select list
//  7. Concatenate SELECT, FROM, JOIN and WHERE
//
// Every failure aborts the compilation with a *queryir.Error naming the
// clause path. No partial SQL is returned.
//
// # Scope
//
// A catalog belongs to exactly one query. A nested sub_query is compiled
// against a new, empty catalog over the same source, so tables registered by
// the enclosing query are not visible inside it and the other way around.
//
// # Literals
//
// Values are validated against their declared data type before they are
// rendered:
//
//	int        base-10 integer, unquoted
//	bool       true|t|yes|y|1|on or false|f|no|n|0|off, rendered TRUE/FALSE
//	date       YYYY-MM-DD, quoted
//	date_time  YYYY-MM-DDTHH:MM:SS, quoted
//	str        any text, quoted with ' doubled
//
// Under DialectMySQL backslashes in strings are doubled as well. Control
// characters other than tab, newline and carriage return are rejected.
//
// # Thread Safety
//
// A Generator holds no per-compilation state and may be shared across
// goroutines as long as its catalog.Source is safe for concurrent use.
package sqlgen
