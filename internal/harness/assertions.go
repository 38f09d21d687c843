package harness

import (
	"fmt"

	"github.com/rigel-lab/qsweep/internal/sweep"
)

// evaluateAssertion checks one assertion against the series.
func evaluateAssertion(a Assertion, scenario *Scenario, series *sweep.Series) error {
	switch a.Type {
	case AssertSeriesLength:
		return assertSeriesLength(a, series)
	case AssertVisibilityBetween:
		return assertVisibilityBetween(a, series)
	case AssertValuesInOrder:
		return assertValuesInOrder(scenario, series)
	case AssertPeakAt:
		return assertPeakAt(a, series)
	default:
		// Unreachable after scenario validation.
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertSeriesLength(a Assertion, series *sweep.Series) error {
	if len(series.Points) != a.Count {
		return fmt.Errorf("series_length: got %d points, want %d", len(series.Points), a.Count)
	}
	return nil
}

func assertVisibilityBetween(a Assertion, series *sweep.Series) error {
	if a.Ordinal >= len(series.Points) {
		return fmt.Errorf("visibility_between: ordinal %d out of range (%d points)",
			a.Ordinal, len(series.Points))
	}
	v := series.Points[a.Ordinal].Visibility
	if v < a.Min || v > a.Max {
		return fmt.Errorf("visibility_between: point %d visibility %g outside [%g, %g]",
			a.Ordinal, v, a.Min, a.Max)
	}
	return nil
}

func assertValuesInOrder(scenario *Scenario, series *sweep.Series) error {
	want := scenario.Sweep.GridValues()
	got := series.Values()
	if len(got) != len(want) {
		return fmt.Errorf("values_in_order: %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("values_in_order: position %d is %g, want %g", i, got[i], want[i])
		}
	}
	return nil
}

func assertPeakAt(a Assertion, series *sweep.Series) error {
	if a.Ordinal >= len(series.Points) {
		return fmt.Errorf("peak_at: ordinal %d out of range (%d points)",
			a.Ordinal, len(series.Points))
	}
	peak := series.Points[a.Ordinal].Visibility
	for i, p := range series.Points {
		if i != a.Ordinal && p.Visibility >= peak {
			return fmt.Errorf("peak_at: point %d visibility %g >= point %d visibility %g",
				i, p.Visibility, a.Ordinal, peak)
		}
	}
	return nil
}
