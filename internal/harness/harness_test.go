package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_RabiScenario(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/rabi.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "failures: %v", result.Errors)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Series.Points, 9)
	assert.Equal(t, "sweep-rabi", result.Series.SweepID)

	// The replayed series from the in-memory store matches the live one.
	require.NotNil(t, result.Replayed)
	assert.Equal(t, result.Series.Points, result.Replayed.Points)
}

func TestRun_RamseyScenario(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/ramsey.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "failures: %v", result.Errors)
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/ramsey.yaml")
	require.NoError(t, err)

	r1, err := Run(scenario)
	require.NoError(t, err)
	r2, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, r1.Series.Points, r2.Series.Points)
}

func TestRun_FailingAssertion(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/rabi.yaml")
	require.NoError(t, err)

	// Demand an impossible visibility at the node of the oscillation.
	scenario.Assertions = []Assertion{
		{Type: AssertVisibilityBetween, Ordinal: 0, Min: 0.9, Max: 1.0},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "visibility_between")
}

func TestRun_OrdinalOutOfRange(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/ramsey.yaml")
	require.NoError(t, err)
	scenario.Assertions = []Assertion{
		{Type: AssertVisibilityBetween, Ordinal: 99, Min: 0, Max: 1},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
}

func TestRun_UnknownTarget(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/rabi.yaml")
	require.NoError(t, err)
	scenario.Target = "does-not-exist"

	_, err = Run(scenario)
	require.Error(t, err)
}

func TestRun_ReservedTarget(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/rabi.yaml")
	require.NoError(t, err)
	scenario.Target = "lodestone-9"

	_, err = Run(scenario)
	require.Error(t, err)
}
