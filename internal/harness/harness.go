package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rigel-lab/qsweep/internal/compiler"
	"github.com/rigel-lab/qsweep/internal/device"
	"github.com/rigel-lab/qsweep/internal/qvm"
	"github.com/rigel-lab/qsweep/internal/store"
	"github.com/rigel-lab/qsweep/internal/sweep"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success: the sweep ran to
	// completion and every assertion held.
	Pass bool `json:"pass"`

	// Series is the sweep output the assertions ran against.
	Series *sweep.Series `json:"series"`

	// Replayed is the same series read back from the store, proving the
	// persisted records reconstruct what the runner returned.
	Replayed *sweep.Series `json:"-"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory store and a simulator
// backend with the scenario's fixed seed, so repeated runs produce
// identical series.
//
// Execution flow:
//  1. Compile the CUE program
//  2. Resolve the target and compile to a binary
//  3. Sweep the grid, recording into an in-memory store
//  4. Replay the series from the store and check it matches
//  5. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	p, err := compiler.LoadProgram(scenario.Program, scenario.ProgramName)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	backendOpts := []qvm.Option{}
	if scenario.Seed != 0 {
		backendOpts = append(backendOpts, qvm.WithSeed(scenario.Seed))
	}
	catalog, err := device.DefaultCatalog()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	resolver := device.NewResolver(catalog)
	resolver.RegisterBackend(qvm.Driver, qvm.New(backendOpts...))

	h, err := resolver.Resolve(scenario.Target)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	defer st.Close()

	values := scenario.Sweep.GridValues()

	// Fixed ids keep the trace deterministic: one sweep id, one run id
	// per point.
	ids := make([]string, 0, 1+len(values))
	ids = append(ids, fmt.Sprintf("sweep-%s", scenario.Name))
	for i := range values {
		ids = append(ids, fmt.Sprintf("run-%s-%04d", scenario.Name, i))
	}

	runner := sweep.NewRunner(
		sweep.WithRecorder(st),
		sweep.WithIDGenerator(sweep.NewFixedIDGenerator(ids...)),
	)

	req := sweep.Request{Register: scenario.Sweep.Register, Values: values}
	if scenario.Readout != "" {
		req.Readout.Register = scenario.Readout
	}

	ctx := context.Background()
	series, err := runner.Execute(ctx, h, p, req)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	replayed, err := st.ReplaySeries(ctx, series.SweepID)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: replay: %w", scenario.Name, err)
	}

	result := &Result{Pass: true, Series: series, Replayed: replayed}

	if err := checkReplay(series, replayed); err != nil {
		result.AddError(err.Error())
	}
	for i, a := range scenario.Assertions {
		if err := evaluateAssertion(a, scenario, series); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	slog.Debug("scenario finished",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"points", len(series.Points),
	)
	return result, nil
}

// checkReplay verifies the store round trip: what was recorded replays
// into exactly the series the runner returned.
func checkReplay(live, replayed *sweep.Series) error {
	if len(live.Points) != len(replayed.Points) {
		return fmt.Errorf("replay: %d points, live series has %d",
			len(replayed.Points), len(live.Points))
	}
	for i := range live.Points {
		if live.Points[i] != replayed.Points[i] {
			return fmt.Errorf("replay: point %d differs: %+v vs %+v",
				i, replayed.Points[i], live.Points[i])
		}
	}
	return nil
}
