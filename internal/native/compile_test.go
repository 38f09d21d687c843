package native

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigel-lab/qsweep/internal/prog"
)

// defaultSet mirrors the embedded simulated target's native vocabulary.
func defaultSet() GateSet {
	return GateSet{
		prog.GateRZ: true,
		prog.GateSX: true,
		prog.GateX:  true,
		prog.GateCZ: true,
	}
}

func rabiProgram(t *testing.T) *prog.Program {
	t.Helper()
	b := prog.NewBuilder("rabi")
	require.NoError(t, b.Declare("theta", prog.RegReal, 1))
	require.NoError(t, b.Declare("ro", prog.RegBit, 1))
	require.NoError(t, b.AppendGate(prog.GateRX, prog.Param("theta", 0), 0))
	require.NoError(t, b.AppendMeasure(0, prog.RegisterRef{Register: "ro"}))
	require.NoError(t, b.SetShots(1000))
	return b.Build()
}

func TestCompile_ParametricRX(t *testing.T) {
	bin, err := Compile(rabiProgram(t), "sim-2q", defaultSet())
	require.NoError(t, err)

	// rx(θ) lowers to rz·sx·rz(θ+π)·sx·rz plus the measurement.
	require.Len(t, bin.Words, 6)
	assert.Equal(t, OpMeasure, bin.Words[5].Op)

	// Exactly one unresolved slot, carrying the affine transform the
	// decomposition accumulated.
	require.Len(t, bin.Patch, 1)
	e := bin.Patch[0]
	assert.Equal(t, "theta", e.Register)
	assert.Equal(t, 0, e.Index)
	assert.InDelta(t, 1.0, e.Coeff, 1e-15)
	assert.InDelta(t, math.Pi, e.Offset, 1e-15)

	// The parametric word points at that slot; constant words do not.
	assert.Equal(t, 0, bin.Words[2].Slot)
	assert.Equal(t, NoSlot, bin.Words[0].Slot)

	assert.Equal(t, 1000, bin.Shots)
	assert.Equal(t, []int{0}, bin.Qubits())
}

func TestCompile_NativeGatePassthrough(t *testing.T) {
	b := prog.NewBuilder("p")
	require.NoError(t, b.Declare("ro", prog.RegBit, 1))
	require.NoError(t, b.AppendGate(prog.GateX, prog.Expr{}, 0))
	require.NoError(t, b.AppendMeasure(0, prog.RegisterRef{Register: "ro"}))

	bin, err := Compile(b.Build(), "sim-2q", defaultSet())
	require.NoError(t, err)
	require.Len(t, bin.Words, 2)
	assert.Equal(t, "x", bin.Words[0].Op)
	assert.Empty(t, bin.Patch)
}

func TestCompile_RYLowersAndPeepholeMerges(t *testing.T) {
	b := prog.NewBuilder("p")
	require.NoError(t, b.Declare("theta", prog.RegReal, 1))
	require.NoError(t, b.AppendGate(prog.GateRY, prog.Param("theta", 0), 0))

	bin, err := Compile(b.Build(), "sim-2q", defaultSet())
	require.NoError(t, err)

	// ry(θ) expands through rx; the leading rz(-π/2)·rz(π/2) cancels and
	// the trailing pair merges: sx, rz(θ+π), sx, rz(π).
	require.Len(t, bin.Words, 4)
	assert.Equal(t, "sx", bin.Words[0].Op)
	assert.Equal(t, "rz", bin.Words[1].Op)
	assert.Equal(t, "sx", bin.Words[2].Op)
	assert.Equal(t, "rz", bin.Words[3].Op)
	assert.Equal(t, NoSlot, bin.Words[3].Slot)
	assert.InDelta(t, math.Pi, bin.Words[3].Angle, 1e-12)

	require.Len(t, bin.Patch, 1)
}

func TestCompile_HadamardDecomposition(t *testing.T) {
	b := prog.NewBuilder("p")
	require.NoError(t, b.AppendGate(prog.GateH, prog.Expr{}, 0))

	bin, err := Compile(b.Build(), "sim-2q", defaultSet())
	require.NoError(t, err)
	require.Len(t, bin.Words, 3)
	assert.Equal(t, "rz", bin.Words[0].Op)
	assert.Equal(t, "sx", bin.Words[1].Op)
	assert.Equal(t, "rz", bin.Words[2].Op)
}

func TestCompile_UnsatisfiableNativeMapping(t *testing.T) {
	b := prog.NewBuilder("p")
	require.NoError(t, b.AppendGate(prog.GateCZ, prog.Expr{}, 0, 1))

	_, err := Compile(b.Build(), "no-cz", GateSet{prog.GateRZ: true, prog.GateSX: true})
	require.Error(t, err)
	assert.True(t, IsCompileError(err))
}

func TestCompile_PureFunctionOfProgram(t *testing.T) {
	p := rabiProgram(t)

	b1, err := Compile(p, "sim-2q", defaultSet())
	require.NoError(t, err)
	b2, err := Compile(p, "sim-2q", defaultSet())
	require.NoError(t, err)

	h1, err := b1.Hash()
	require.NoError(t, err)
	h2, err := b2.Hash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	// A different target id is a different artifact.
	b3, err := Compile(p, "other", defaultSet())
	require.NoError(t, err)
	h3, err := b3.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestBinary_ResolveSlots(t *testing.T) {
	bin, err := Compile(rabiProgram(t), "sim-2q", defaultSet())
	require.NoError(t, err)

	mem, err := prog.Single(bin, "theta", math.Pi)
	require.NoError(t, err)
	angles, err := bin.ResolveSlots(mem)
	require.NoError(t, err)
	require.Len(t, angles, 1)
	assert.InDelta(t, 2*math.Pi, angles[0], 1e-12) // θ+π with θ=π

	// A map missing the slot's register fails at resolution.
	_, err = bin.ResolveSlots(prog.MemoryMap{})
	require.Error(t, err)
	assert.True(t, prog.IsBindingError(err))
}

func TestBinary_RegisterLookup(t *testing.T) {
	bin, err := Compile(rabiProgram(t), "sim-2q", defaultSet())
	require.NoError(t, err)

	r, ok := bin.Register("theta")
	require.True(t, ok)
	assert.Equal(t, prog.RegReal, r.Type)

	_, ok = bin.Register("phi")
	assert.False(t, ok)
}
