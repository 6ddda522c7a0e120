// Package catalog holds the schema catalog: the tables a single query
// compilation has brought into scope, and the typed columns of each.
//
// A Catalog is created empty for every query compilation, including every
// nested subquery, and is never shared between compilations. Tables enter
// it only through Register, which consults a Source; Lookup answers only
// for registered tables. An attribute on an unregistered table is therefore
// unknown even if the backing database has it.
//
// Sources:
//   - StaticSource: in-memory schema, built by hand or by LoadCUE
//   - store.Store: SQLite schema introspection
package catalog
