package sweep_test

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigel-lab/qsweep/internal/device"
	"github.com/rigel-lab/qsweep/internal/prog"
	"github.com/rigel-lab/qsweep/internal/sweep"
	"github.com/rigel-lab/qsweep/internal/testutil"
)

func fakeHandle(t *testing.T, fb *testutil.FakeBackend) *device.Handle {
	t.Helper()
	h, err := testutil.NewHandle("fake-1q", fb)
	require.NoError(t, err)
	return h
}

func sweepProgram(t *testing.T, shots int) *prog.Program {
	t.Helper()
	b := prog.NewBuilder("rabi")
	require.NoError(t, b.Declare("theta", prog.RegReal, 1))
	require.NoError(t, b.Declare("ro", prog.RegBit, 1))
	require.NoError(t, b.AppendGate(prog.GateRX, prog.Param("theta", 0), 0))
	require.NoError(t, b.AppendMeasure(0, prog.RegisterRef{Register: "ro"}))
	require.NoError(t, b.SetShots(shots))
	return b.Build()
}

// memoryRecorder collects records in memory for assertions.
type memoryRecorder struct {
	sweeps []sweep.SweepRecord
	runs   []sweep.RunRecord
}

func (m *memoryRecorder) RecordSweep(_ context.Context, rec sweep.SweepRecord) error {
	m.sweeps = append(m.sweeps, rec)
	return nil
}

func (m *memoryRecorder) RecordRun(_ context.Context, rec sweep.RunRecord) error {
	m.runs = append(m.runs, rec)
	return nil
}

func TestRunner_OneCompileNRuns(t *testing.T) {
	fb := testutil.NewFakeBackend("theta")
	h := fakeHandle(t, fb)
	rn := sweep.NewRunner()

	values := []float64{0.1, 0.2, 0.3, 0.4, 0.5}
	series, err := rn.Execute(context.Background(), h, sweepProgram(t, 100), sweep.Request{
		Register: "theta",
		Values:   values,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, fb.Compiles)
	assert.Equal(t, len(values), fb.Runs)
	require.Len(t, series.Points, len(values))

	// Order matches the input sweep order exactly, both in what was bound
	// and in the accumulated series.
	assert.Equal(t, values, fb.Bound)
	assert.Equal(t, values, series.Values())

	for i, p := range series.Points {
		assert.InDelta(t, values[i], p.Visibility, 1e-12)
		assert.GreaterOrEqual(t, p.Visibility, 0.0)
		assert.LessOrEqual(t, p.Visibility, 1.0)
		assert.Equal(t, 100, p.Shots)
	}
}

func TestRunner_FailFastAbortsSweep(t *testing.T) {
	fb := testutil.NewFakeBackend("theta")
	fb.FailRunAt = 2
	h := fakeHandle(t, fb)
	rec := &memoryRecorder{}
	rn := sweep.NewRunner(
		sweep.WithRecorder(rec),
		sweep.WithIDGenerator(sweep.NewFixedIDGenerator("s1", "r0", "r1")),
	)

	_, err := rn.Execute(context.Background(), h, sweepProgram(t, 10), sweep.Request{
		Register: "theta",
		Values:   []float64{0.1, 0.2, 0.3, 0.4},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, testutil.ErrInjected)

	// No retry: the failing run is attempted once and nothing after it.
	assert.Equal(t, 3, fb.Runs)

	// Records from completed iterations survive in the recorder; the
	// failed and unreached iterations leave none.
	require.Len(t, rec.sweeps, 1)
	assert.Len(t, rec.runs, 2)
	assert.Equal(t, 0, rec.runs[0].Ordinal)
	assert.Equal(t, 1, rec.runs[1].Ordinal)
}

func TestRunner_RecordsSeqAndIDs(t *testing.T) {
	fb := testutil.NewFakeBackend("theta")
	h := fakeHandle(t, fb)
	rec := &memoryRecorder{}
	rn := sweep.NewRunner(
		sweep.WithRecorder(rec),
		sweep.WithClock(sweep.NewClock()),
		sweep.WithIDGenerator(sweep.NewFixedIDGenerator("sweep-1", "run-a", "run-b")),
	)

	series, err := rn.Execute(context.Background(), h, sweepProgram(t, 10), sweep.Request{
		Register: "theta",
		Values:   []float64{0.25, 0.75},
	})
	require.NoError(t, err)
	assert.Equal(t, "sweep-1", series.SweepID)

	require.Len(t, rec.sweeps, 1)
	require.Len(t, rec.runs, 2)
	assert.Equal(t, "sweep-1", rec.sweeps[0].ID)
	assert.Equal(t, int64(1), rec.sweeps[0].Seq)
	assert.Equal(t, "run-a", rec.runs[0].ID)
	assert.Equal(t, "run-b", rec.runs[1].ID)
	assert.Less(t, rec.runs[0].Seq, rec.runs[1].Seq)
	assert.NotEmpty(t, rec.sweeps[0].BinaryHash)
}

func TestRunner_EmptyValues(t *testing.T) {
	fb := testutil.NewFakeBackend("theta")
	h := fakeHandle(t, fb)
	rn := sweep.NewRunner()

	_, err := rn.Execute(context.Background(), h, sweepProgram(t, 10), sweep.Request{Register: "theta"})
	require.Error(t, err)
	assert.Equal(t, 0, fb.Runs)
}

func TestRunner_ReadoutInference(t *testing.T) {
	fb := testutil.NewFakeBackend("theta")
	h := fakeHandle(t, fb)
	rn := sweep.NewRunner()

	// Two bit registers: inference must refuse and demand an explicit
	// readout.
	b := prog.NewBuilder("multi")
	require.NoError(t, b.Declare("theta", prog.RegReal, 1))
	require.NoError(t, b.Declare("ro", prog.RegBit, 1))
	require.NoError(t, b.Declare("aux", prog.RegBit, 1))
	require.NoError(t, b.AppendGate(prog.GateRX, prog.Param("theta", 0), 0))
	require.NoError(t, b.AppendMeasure(0, prog.RegisterRef{Register: "ro"}))
	p := b.Build()

	_, err := rn.Execute(context.Background(), h, p, sweep.Request{
		Register: "theta",
		Values:   []float64{0.5},
	})
	require.Error(t, err)

	series, err := rn.Execute(context.Background(), h, p, sweep.Request{
		Register: "theta",
		Values:   []float64{0.5},
		Readout:  prog.RegisterRef{Register: "ro"},
	})
	require.NoError(t, err)
	assert.Len(t, series.Points, 1)
}

func TestRunner_UnknownSweepRegister(t *testing.T) {
	fb := testutil.NewFakeBackend("theta")
	h := fakeHandle(t, fb)
	rn := sweep.NewRunner()

	_, err := rn.Execute(context.Background(), h, sweepProgram(t, 10), sweep.Request{
		Register: "phi",
		Values:   []float64{1},
	})
	require.Error(t, err)
	assert.True(t, prog.IsBindingError(err))
	assert.Equal(t, 0, fb.Runs)
}

func TestRunner_CompileFailure(t *testing.T) {
	fb := testutil.NewFakeBackend("theta")
	fb.FailCompile = true
	h := fakeHandle(t, fb)
	rn := sweep.NewRunner()

	_, err := rn.Execute(context.Background(), h, sweepProgram(t, 10), sweep.Request{
		Register: "theta",
		Values:   []float64{0.5},
	})
	require.Error(t, err)
	assert.Equal(t, 0, fb.Runs)
}

func TestLinspace(t *testing.T) {
	vals := sweep.Linspace(0, 2*math.Pi, 5)
	require.Len(t, vals, 5)
	assert.InDelta(t, 0, vals[0], 1e-15)
	assert.InDelta(t, math.Pi, vals[2], 1e-12)
	assert.InDelta(t, 2*math.Pi, vals[4], 1e-12)

	assert.Equal(t, []float64{3}, sweep.Linspace(3, 9, 1))
	assert.Empty(t, sweep.Linspace(0, 1, 0))
}

func TestClock_Monotonic(t *testing.T) {
	c := sweep.NewClockAt(10)
	assert.Equal(t, int64(10), c.Current())
	assert.Equal(t, int64(11), c.Next())
	assert.Equal(t, int64(12), c.Next())
}

func TestFixedIDGenerator_Exhaustion(t *testing.T) {
	g := sweep.NewFixedIDGenerator("a")
	assert.Equal(t, "a", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

func ExampleLinspace() {
	fmt.Println(sweep.Linspace(0, 1, 3))
	// Output: [0 0.5 1]
}
