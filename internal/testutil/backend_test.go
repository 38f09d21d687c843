package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigel-lab/qsweep/internal/prog"
)

func testProgram(t *testing.T) *prog.Program {
	t.Helper()
	b := prog.NewBuilder("p")
	require.NoError(t, b.Declare("theta", prog.RegReal, 1))
	require.NoError(t, b.Declare("ro", prog.RegBit, 1))
	require.NoError(t, b.AppendGate(prog.GateRX, prog.Param("theta", 0), 0))
	require.NoError(t, b.AppendMeasure(0, prog.RegisterRef{Register: "ro"}))
	require.NoError(t, b.SetShots(100))
	return b.Build()
}

func TestFakeBackend_VisibilityTracksBoundValue(t *testing.T) {
	fb := NewFakeBackend("theta")
	h, err := NewHandle("fake-1q", fb)
	require.NoError(t, err)

	ctx := context.Background()
	bin, err := h.Compile(ctx, testProgram(t))
	require.NoError(t, err)
	assert.Equal(t, 1, fb.Compiles)

	mem, err := prog.Single(bin, "theta", 0.37)
	require.NoError(t, err)
	res, err := h.Run(ctx, bin, mem)
	require.NoError(t, err)

	vis, err := res.Visibility("ro", 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.37, vis, 1e-12)
	assert.Equal(t, []float64{0.37}, fb.Bound)
}

func TestFakeBackend_FailureInjection(t *testing.T) {
	fb := NewFakeBackend("theta")
	fb.FailRunAt = 1
	h, err := NewHandle("fake-1q", fb)
	require.NoError(t, err)

	ctx := context.Background()
	bin, err := h.Compile(ctx, testProgram(t))
	require.NoError(t, err)

	mem, err := prog.Single(bin, "theta", 0.5)
	require.NoError(t, err)

	_, err = h.Run(ctx, bin, mem)
	require.NoError(t, err)
	_, err = h.Run(ctx, bin, mem)
	assert.ErrorIs(t, err, ErrInjected)
}
