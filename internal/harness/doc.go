// Package harness runs query compilation scenarios.
//
// A scenario pairs a query document with a schema and the expected outcome.
// Scenarios are the conformance suite for the generator: each one compiles a
// single document and checks the SQL text, the error, or the rows the SQL
// returns when executed.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: paid_orders
//	description: "Leaf equality on a string column"
//	dialect: mysql            # optional; sqlite when setup is given
//	schema:                   # one of schema, schema_dir, setup
//	  orders: { id: int, status: str }
//	query:
//	  select: [[orders, id]]
//	  from: orders
//	  where:
//	    where_condition:
//	      table: orders
//	      attribute: status
//	      data_type: str
//	      primary_operator: equals
//	      primary_value: paid
//	expect:
//	  sql: "SELECT `orders`.`id` FROM `orders` WHERE `orders`.`status` = 'paid'"
//
// # Schema Sources
//
//   - schema: inline table -> column -> data type token
//   - schema_dir: directory of CUE files, relative to the scenario file
//   - setup: SQL run against a fresh in-memory SQLite database whose
//     tables become the schema; required for row expectations
//
// # Expectations
//
//   - sql: exact statement text
//   - where: exact where fragment
//   - error: {kind, path} of the expected failure
//   - rows: number of rows the statement returns on the setup database
//
// # Determinism
//
// Each run uses a fresh catalog and database, and the compilation ID is
// fixed to the scenario name, so golden snapshots are byte-stable.
package harness
