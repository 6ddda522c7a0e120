// Package ir provides the canonical form of query documents and the
// content-addressed fingerprints computed from it.
//
// A query document is arbitrary JSON. To fingerprint it, the decoded value is
// converted to the sealed Value types here and serialized as canonical JSON:
//   - Object keys sorted by UTF-16 code units (RFC 8785)
//   - No HTML escaping
//   - Strings NFC normalized
//   - Integers printed in base 10; non-integer numbers keep their literal text
//
// Fingerprints identify documents up to key order, whitespace and Unicode
// normalization. They label logs, CLI output and golden snapshots; nothing
// uses them to look up compiled SQL.
//
// This package imports nothing internal.
package ir
