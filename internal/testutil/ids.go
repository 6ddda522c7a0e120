// Package testutil provides deterministic helpers for tests and scenario runs.
package testutil

// FixedIDGenerator returns the same compilation ID every time.
//
// This enables deterministic test execution and golden snapshot comparison:
// the same scenario compiled twice logs and reports identical IDs.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a new fixed ID generator.
//
// If id is empty, Generate() returns "test-compilation-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-compilation-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed ID.
//
// Implements sqlgen.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
