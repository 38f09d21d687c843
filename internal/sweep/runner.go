// Package sweep implements the parametrized execution loop: bind one
// value into the compiled binary's parameter slot, submit a blocking run,
// aggregate the outcome batch into a visibility scalar, append to the
// series, repeat for the next value.
//
// The loop is strictly sequential in input order. Iterations share no
// mutable state besides the series accumulator, and the binary is
// read-only throughout, so the loop could be parallelized; the reference
// behavior is and stays one blocking call at a time.
package sweep

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rigel-lab/qsweep/internal/device"
	"github.com/rigel-lab/qsweep/internal/native"
	"github.com/rigel-lab/qsweep/internal/prog"
)

// Runner drives sweeps. Construct with NewRunner; the zero value is not
// usable.
type Runner struct {
	recorder Recorder
	clock    *Clock
	ids      IDGenerator
}

// Option configures a Runner.
type Option func(*Runner)

// WithRecorder enables persistence of sweep and run records.
func WithRecorder(r Recorder) Option {
	return func(rn *Runner) {
		rn.recorder = r
	}
}

// WithClock replaces the runner's logical clock. Used when appending to
// an existing store and in deterministic tests.
func WithClock(c *Clock) Option {
	return func(rn *Runner) {
		rn.clock = c
	}
}

// WithIDGenerator replaces the UUIDv7 id generator. Used in tests.
func WithIDGenerator(g IDGenerator) Option {
	return func(rn *Runner) {
		rn.ids = g
	}
}

// NewRunner creates a Runner with UUIDv7 ids, a fresh clock, and no
// recorder.
func NewRunner(opts ...Option) *Runner {
	rn := &Runner{
		clock: NewClock(),
		ids:   UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(rn)
	}
	return rn
}

// Execute compiles the program once through the handle and sweeps the
// resulting binary: exactly one compile call regardless of how many
// values follow.
func (rn *Runner) Execute(ctx context.Context, h *device.Handle, p *prog.Program, req Request) (*Series, error) {
	bin, err := h.Compile(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	return rn.Sweep(ctx, h, bin, req)
}

// Sweep executes the binary once per requested value, in order. The first
// failure aborts the remaining iterations and discards the partial
// series; there is no retry and no checkpointing of prior iterations'
// results beyond what the recorder already persisted.
func (rn *Runner) Sweep(ctx context.Context, h *device.Handle, bin *native.Binary, req Request) (*Series, error) {
	if len(req.Values) == 0 {
		return nil, fmt.Errorf("sweep: no values to run")
	}
	readout, err := resolveReadout(bin, req.Readout)
	if err != nil {
		return nil, err
	}

	binHash, err := bin.Hash()
	if err != nil {
		return nil, err
	}

	series := &Series{
		SweepID:  rn.ids.Generate(),
		Target:   bin.Target,
		Register: prog.NormalizeName(req.Register),
		Points:   make([]Point, 0, len(req.Values)),
	}

	if rn.recorder != nil {
		rec := SweepRecord{
			ID:         series.SweepID,
			BinaryHash: binHash,
			Target:     bin.Target,
			Register:   series.Register,
			Shots:      bin.Shots,
			Seq:        rn.clock.Next(),
		}
		if err := rn.recorder.RecordSweep(ctx, rec); err != nil {
			return nil, fmt.Errorf("record sweep: %w", err)
		}
	}

	slog.Info("sweep starting",
		"sweep_id", series.SweepID,
		"target", bin.Target,
		"register", series.Register,
		"points", len(req.Values),
		"shots", bin.Shots,
	)

	for i, value := range req.Values {
		// Binding is validated against the binary's declarations before
		// the run call goes out; arity mismatches never reach the device.
		mem, err := prog.Single(bin, series.Register, value)
		if err != nil {
			return nil, fmt.Errorf("bind %s=%g: %w", series.Register, value, err)
		}

		res, err := h.Run(ctx, bin, mem)
		if err != nil {
			slog.Error("run failed, aborting sweep",
				"sweep_id", series.SweepID,
				"ordinal", i,
				"value", value,
				"error", err,
			)
			return nil, fmt.Errorf("run %d (%s=%g): %w", i, series.Register, value, err)
		}
		if res.Shots != bin.Shots {
			return nil, fmt.Errorf("run %d: batch size %d, want %d", i, res.Shots, bin.Shots)
		}

		vis, err := res.Visibility(readout.Register, readout.Index)
		if err != nil {
			return nil, fmt.Errorf("run %d: aggregate: %w", i, err)
		}

		point := Point{Value: value, Visibility: vis, Shots: res.Shots}
		series.Points = append(series.Points, point)

		if rn.recorder != nil {
			rec := RunRecord{
				ID:         rn.ids.Generate(),
				SweepID:    series.SweepID,
				Ordinal:    i,
				Value:      value,
				Visibility: vis,
				Shots:      res.Shots,
				Seq:        rn.clock.Next(),
			}
			if err := rn.recorder.RecordRun(ctx, rec); err != nil {
				return nil, fmt.Errorf("record run %d: %w", i, err)
			}
		}

		slog.Debug("point recorded",
			"sweep_id", series.SweepID,
			"ordinal", i,
			"value", value,
			"visibility", vis,
		)
	}

	slog.Info("sweep complete", "sweep_id", series.SweepID, "points", len(series.Points))
	return series, nil
}

// resolveReadout validates an explicit readout reference or infers one:
// inference succeeds only when the binary declares exactly one single-bit
// register.
func resolveReadout(bin *native.Binary, ref prog.RegisterRef) (prog.RegisterRef, error) {
	if ref.Register != "" {
		ref.Register = prog.NormalizeName(ref.Register)
		reg, ok := bin.Register(ref.Register)
		if !ok {
			return ref, fmt.Errorf("readout register %q not declared", ref.Register)
		}
		if reg.Type != prog.RegBit {
			return ref, fmt.Errorf("readout register %q is not a bit register", ref.Register)
		}
		if ref.Index < 0 || ref.Index >= reg.Length {
			return ref, fmt.Errorf("readout %s out of range (length %d)", ref, reg.Length)
		}
		return ref, nil
	}

	var found []prog.Register
	for _, r := range bin.Registers {
		if r.Type == prog.RegBit {
			found = append(found, r)
		}
	}
	if len(found) == 1 && found[0].Length == 1 {
		return prog.RegisterRef{Register: found[0].Name}, nil
	}
	return ref, fmt.Errorf("cannot infer readout register: specify one explicitly")
}
