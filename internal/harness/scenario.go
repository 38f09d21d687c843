package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rigel-lab/qsweep/internal/sweep"
)

// Scenario defines a conformance test scenario: one program, one target,
// one sweep, and assertions over the series it produces.
type Scenario struct {
	// Name uniquely identifies this scenario. Also the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Program is the path to the CUE program file, relative to the
	// scenario file location.
	Program string `yaml:"program"`

	// ProgramName selects a program when the file declares several.
	ProgramName string `yaml:"program_name,omitempty"`

	// Target is the catalog target id to run on. Must resolve to a
	// simulator target; hardware drivers are not available in tests.
	Target string `yaml:"target"`

	// Sweep describes the parameter grid.
	Sweep SweepClause `yaml:"sweep"`

	// Readout names the bit register to aggregate. Optional when the
	// program declares exactly one single-bit register.
	Readout string `yaml:"readout,omitempty"`

	// Seed overrides the simulator's derived seed for this scenario.
	// Zero means derive from content hashes, which is equally
	// deterministic.
	Seed uint64 `yaml:"seed,omitempty"`

	// Assertions validate the final series.
	// Supported types: series_length, visibility_between, values_in_order,
	// peak_at.
	Assertions []Assertion `yaml:"assertions"`
}

// SweepClause describes the value grid: either an explicit values list or
// an evenly spaced from/to/points range.
type SweepClause struct {
	Register string    `yaml:"register"`
	Values   []float64 `yaml:"values,omitempty"`
	From     float64   `yaml:"from,omitempty"`
	To       float64   `yaml:"to,omitempty"`
	Points   int       `yaml:"points,omitempty"`
}

// Assertion validates the resulting series.
type Assertion struct {
	// Type specifies the assertion type:
	// - "series_length": series has exactly Count points
	// - "visibility_between": point Ordinal's visibility is in [Min, Max]
	// - "values_in_order": swept values equal the requested grid, in order
	// - "peak_at": point Ordinal has the strictly largest visibility
	Type string `yaml:"type"`

	// Ordinal selects a point (visibility_between, peak_at).
	Ordinal int `yaml:"ordinal,omitempty"`

	// Min and Max bound a visibility (visibility_between).
	Min float64 `yaml:"min,omitempty"`
	Max float64 `yaml:"max,omitempty"`

	// Count is the expected number of points (series_length).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertSeriesLength      = "series_length"
	AssertVisibilityBetween = "visibility_between"
	AssertValuesInOrder     = "values_in_order"
	AssertPeakAt            = "peak_at"
)

// LoadScenario reads and parses a scenario YAML file. Program paths are
// resolved relative to the scenario file's directory. Returns an error if
// the file is malformed, contains unknown fields (typos), or is missing
// required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs
	// "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Program != "" && !filepath.IsAbs(scenario.Program) {
		scenario.Program = filepath.Join(filepath.Dir(path), scenario.Program)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Program == "" {
		return fmt.Errorf("program is required")
	}
	if _, err := os.Stat(s.Program); os.IsNotExist(err) {
		return fmt.Errorf("program file not found: %s", s.Program)
	}
	if s.Target == "" {
		return fmt.Errorf("target is required")
	}

	if s.Sweep.Register == "" {
		return fmt.Errorf("sweep.register is required")
	}
	if len(s.Sweep.Values) == 0 && s.Sweep.Points == 0 {
		return fmt.Errorf("sweep needs values or from/to/points")
	}
	if len(s.Sweep.Values) > 0 && s.Sweep.Points != 0 {
		return fmt.Errorf("sweep values and from/to/points are mutually exclusive")
	}
	if len(s.Sweep.Values) == 0 && s.Sweep.Points < 1 {
		return fmt.Errorf("sweep.points must be >= 1")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertSeriesLength:
		if a.Count < 1 {
			return fmt.Errorf("assertions[%d]: count must be >= 1 for series_length", index)
		}
	case AssertVisibilityBetween:
		if a.Ordinal < 0 {
			return fmt.Errorf("assertions[%d]: ordinal must be non-negative", index)
		}
		if a.Min > a.Max {
			return fmt.Errorf("assertions[%d]: min > max", index)
		}
	case AssertPeakAt:
		if a.Ordinal < 0 {
			return fmt.Errorf("assertions[%d]: ordinal must be non-negative", index)
		}
	case AssertValuesInOrder:
		// No extra fields.
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// GridValues expands the sweep clause into the concrete value sequence.
func (c SweepClause) GridValues() []float64 {
	if len(c.Values) > 0 {
		return c.Values
	}
	return sweep.Linspace(c.From, c.To, c.Points)
}
