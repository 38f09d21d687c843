package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/rigel-lab/qsweep/internal/prog"
	"github.com/rigel-lab/qsweep/internal/sweep"
)

// SeriesSnapshot is the canonical-JSON shape written to golden files.
//
// Visibilities are deliberately excluded: they are checked by scenario
// assertions with explicit bounds, so golden files stay stable under
// simulator seeding changes while still pinning the sweep's deterministic
// shape.
type SeriesSnapshot struct {
	ScenarioName string
	Series       *sweep.Series
}

func (s SeriesSnapshot) toCanonicalMap() map[string]any {
	points := make([]any, len(s.Series.Points))
	for i, p := range s.Series.Points {
		points[i] = map[string]any{
			"ordinal": i,
			"value":   p.Value,
			"shots":   p.Shots,
		}
	}
	return map[string]any{
		"scenario": s.ScenarioName,
		"sweep_id": s.Series.SweepID,
		"target":   s.Series.Target,
		"register": s.Series.Register,
		"points":   points,
	}
}

// RunWithGolden executes a scenario and compares its series snapshot
// against the golden file named after the scenario.
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's series against a golden file.
// Useful when a scenario has already run and only the comparison is
// needed.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := SeriesSnapshot{
		ScenarioName: scenarioName,
		Series:       result.Series,
	}

	snapshotJSON, err := prog.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, snapshotJSON)

	return nil
}
