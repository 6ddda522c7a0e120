package harness

import (
	"context"
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/dynsql/internal/ir"
	"github.com/roach88/dynsql/internal/queryir"
)

// Snapshot is the golden form of a scenario run.
type Snapshot struct {
	ScenarioName string
	SQL          string
	Fingerprint  string
	ErrorKind    string
	ErrorPath    string
}

// NewSnapshot captures the deterministic parts of a result.
func NewSnapshot(name string, result *Result) Snapshot {
	s := Snapshot{
		ScenarioName: name,
		SQL:          result.SQL,
		Fingerprint:  result.Fingerprint,
	}
	var qe *queryir.Error
	if errors.As(result.Err, &qe) {
		s.ErrorKind = string(qe.Kind)
		s.ErrorPath = qe.Path
	}
	return s
}

// toCanonicalMap converts a Snapshot to a map for canonical JSON serialization.
func (s Snapshot) toCanonicalMap() map[string]any {
	m := map[string]any{
		"scenario_name": s.ScenarioName,
	}
	if s.SQL != "" {
		m["sql"] = s.SQL
	}
	if s.Fingerprint != "" {
		m["fingerprint"] = s.Fingerprint
	}
	if s.ErrorKind != "" {
		m["error"] = map[string]any{
			"kind": s.ErrorKind,
			"path": s.ErrorPath,
		}
	}
	return m
}

// MarshalSnapshot renders a snapshot as canonical JSON.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden runs a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}

	data, err := MarshalSnapshot(NewSnapshot(scenario.Name, result))
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return result, nil
}
