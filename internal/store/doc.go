// Package store provides SQLite access for dynsql: schema introspection
// for the catalog, and statement execution for fixtures and round-trip
// checks of generated SQL.
//
// # Schema Introspection
//
// Store implements catalog.Source and catalog.Lister. Tables and views are
// read from sqlite_master; columns from pragma_table_info. Declared column
// types map onto dynsql data types by SQLite's affinity rules, with a few
// names recognised first:
//
//	BOOL, BOOLEAN              → bool
//	DATETIME, TIMESTAMP        → date_time
//	DATE                       → date
//	*INT*                      → int
//	*CHAR*, *CLOB*, *TEXT*     → str
//
// Columns of any other declared type (REAL, BLOB, NUMERIC, ...) are left out
// of the catalog, so conditions on them fail as unknown columns.
//
// # Database Configuration
//
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// OpenReadOnly opens an existing file with mode=ro; the CLI uses it so
// schema lookups never write to the user's database.
package store
