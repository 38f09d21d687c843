package qvm

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigel-lab/qsweep/internal/device"
	"github.com/rigel-lab/qsweep/internal/native"
	"github.com/rigel-lab/qsweep/internal/prog"
)

func simTarget(t *testing.T) *device.Target {
	t.Helper()
	c, err := device.DefaultCatalog()
	require.NoError(t, err)
	target, ok := c.Target("sim-2q")
	require.True(t, ok)
	return &target
}

func compileRabi(t *testing.T, shots int) *native.Binary {
	t.Helper()
	b := prog.NewBuilder("rabi")
	require.NoError(t, b.Declare("theta", prog.RegReal, 1))
	require.NoError(t, b.Declare("ro", prog.RegBit, 1))
	require.NoError(t, b.AppendGate(prog.GateRX, prog.Param("theta", 0), 0))
	require.NoError(t, b.AppendMeasure(0, prog.RegisterRef{Register: "ro"}))
	require.NoError(t, b.SetShots(shots))

	bin, err := New().Compile(context.Background(), b.Build(), simTarget(t))
	require.NoError(t, err)
	return bin
}

func runAt(t *testing.T, bin *native.Binary, theta float64) float64 {
	t.Helper()
	mem, err := prog.Single(bin, "theta", theta)
	require.NoError(t, err)
	res, err := New().Run(context.Background(), bin, mem)
	require.NoError(t, err)
	require.Equal(t, bin.Shots, res.Shots)
	v, err := res.Visibility("ro", 0)
	require.NoError(t, err)
	return v
}

func TestRun_RotationVisibility(t *testing.T) {
	bin := compileRabi(t, 1000)

	// Full turns return to the ground state; a π rotation fully excites.
	assert.InDelta(t, 0.0, runAt(t, bin, 0), 1e-9)
	assert.InDelta(t, 0.0, runAt(t, bin, 2*math.Pi), 1e-9)
	assert.InDelta(t, 0.0, runAt(t, bin, 4*math.Pi), 1e-9)
	assert.InDelta(t, 1.0, runAt(t, bin, math.Pi), 1e-9)

	// Midpoint: sin²(π/4) = 0.5, sampled with 1000 shots.
	assert.InDelta(t, 0.5, runAt(t, bin, math.Pi/2), 0.06)
}

func TestRun_BatchShape(t *testing.T) {
	bin := compileRabi(t, 64)
	mem, err := prog.Single(bin, "theta", math.Pi/3)
	require.NoError(t, err)

	res, err := New().Run(context.Background(), bin, mem)
	require.NoError(t, err)

	rows := res.Readout["ro"]
	require.Len(t, rows, 64)
	for _, row := range rows {
		require.Len(t, row, 1)
		assert.LessOrEqual(t, row[0], uint8(1))
	}
}

func TestRun_Reproducible(t *testing.T) {
	bin := compileRabi(t, 200)
	mem, err := prog.Single(bin, "theta", 1.234)
	require.NoError(t, err)

	first, err := New().Run(context.Background(), bin, mem)
	require.NoError(t, err)
	second, err := New().Run(context.Background(), bin, mem)
	require.NoError(t, err)
	assert.Equal(t, first.Readout, second.Readout)

	// A different binding draws from a different stream.
	other, err := prog.Single(bin, "theta", 1.235)
	require.NoError(t, err)
	third, err := New().Run(context.Background(), bin, other)
	require.NoError(t, err)
	assert.NotEqual(t, first.Readout, third.Readout)
}

func TestRun_SeedOverride(t *testing.T) {
	bin := compileRabi(t, 100)
	mem, err := prog.Single(bin, "theta", math.Pi/2)
	require.NoError(t, err)

	a, err := New(WithSeed(7)).Run(context.Background(), bin, mem)
	require.NoError(t, err)
	b, err := New(WithSeed(7)).Run(context.Background(), bin, mem)
	require.NoError(t, err)
	assert.Equal(t, a.Readout, b.Readout)
}

func TestRun_RejectsInvalidBinding(t *testing.T) {
	bin := compileRabi(t, 10)

	_, err := New().Run(context.Background(), bin, prog.MemoryMap{"phi": {1}})
	require.Error(t, err)
	assert.True(t, prog.IsBindingError(err))

	_, err = New().Run(context.Background(), bin, prog.MemoryMap{"theta": {1, 2}})
	require.Error(t, err)
	assert.True(t, prog.IsBindingError(err))
}

func TestRun_ContextCancellation(t *testing.T) {
	bin := compileRabi(t, 10)
	mem, err := prog.Single(bin, "theta", 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New().Run(ctx, bin, mem)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompile_TopologyCheck(t *testing.T) {
	b := prog.NewBuilder("p")
	require.NoError(t, b.Declare("ro", prog.RegBit, 1))
	require.NoError(t, b.AppendGate(prog.GateX, prog.Expr{}, 7))
	require.NoError(t, b.AppendMeasure(7, prog.RegisterRef{Register: "ro"}))

	_, err := New().Compile(context.Background(), b.Build(), simTarget(t))
	require.Error(t, err)
	assert.True(t, native.IsCompileError(err))
}

func TestRun_TwoQubitCorrelation(t *testing.T) {
	// h(0); cz(0,1); h(1) measures q1 = q0 xor nothing deterministic, but
	// x(0); cz; measurement of q1 stays 0: cz adds phase only.
	b := prog.NewBuilder("cz-phase")
	require.NoError(t, b.Declare("ro", prog.RegBit, 2))
	require.NoError(t, b.AppendGate(prog.GateX, prog.Expr{}, 0))
	require.NoError(t, b.AppendGate(prog.GateCZ, prog.Expr{}, 0, 1))
	require.NoError(t, b.AppendMeasure(0, prog.RegisterRef{Register: "ro", Index: 0}))
	require.NoError(t, b.AppendMeasure(1, prog.RegisterRef{Register: "ro", Index: 1}))
	require.NoError(t, b.SetShots(50))

	bin, err := New().Compile(context.Background(), b.Build(), simTarget(t))
	require.NoError(t, err)
	res, err := New().Run(context.Background(), bin, prog.MemoryMap{})
	require.NoError(t, err)

	for _, row := range res.Readout["ro"] {
		assert.Equal(t, uint8(1), row[0])
		assert.Equal(t, uint8(0), row[1])
	}
}
