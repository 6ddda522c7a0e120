// Package queryir provides the intermediate representation of a declarative
// query document: the columns to select, the source tables, the joins, and the
// boolean where tree.
//
// ARCHITECTURE:
//
//	[JSON document] → Decode → [Query IR] → sqlgen.Generator → [SQL text]
//
// Decode turns the nested JSON shape into typed values and reports the
// clause path of anything it cannot read. It checks shape only: whether a
// table exists, whether a column has the declared type, and whether a literal
// parses are answered later by the catalog and the compiler.
//
// SEALED INTERFACES:
//
// Expression is a sealed interface using the marker method pattern. Only the
// node types in this package implement it:
//
//	Predicate   leaf comparison: table.attribute OP value [AND value]
//	And, Or     ordered, non-empty list of children
//	Not         one child
//	Exists      one child that must be a Subquery
//	NotExists   one child that must be a Subquery
//	Subquery    a complete nested Query
//
// Backends switch exhaustively over these types:
//
//	switch e := expr.(type) {
//	case *Predicate:
//	case *And:
//	...
//	}
//
// ERRORS:
//
// Every failure in decoding, validation or compilation is an *Error carrying
// an ErrorKind and the clause path where it happened, e.g.
// "where.and[1].not.where_condition". Callers branch on the kind with IsKind.
package queryir
