// Package sqltype is the closed registry of data types and comparison
// operators accepted in where conditions.
//
// Both enumerations are fixed at compile time. Parsing goes from the input
// token (as written in a query document, e.g. "date_time" or
// "greater_than_equals") to the typed constant; rendering goes from the
// constant to its SQL text. There is no state in this package.
//
// This package imports nothing internal. queryir, catalog and sqlgen all
// build on it.
package sqltype
