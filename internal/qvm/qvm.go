// Package qvm is a deterministic statevector simulator implementing the
// device backend interface. It is the execution double the orchestration
// pipeline is tested against: same compile and run contract as a hardware
// driver, with seeded sampling so identical inputs reproduce identical
// outcome batches.
package qvm

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/rigel-lab/qsweep/internal/device"
	"github.com/rigel-lab/qsweep/internal/native"
	"github.com/rigel-lab/qsweep/internal/prog"
)

// Driver is the catalog driver name this backend registers under.
const Driver = "qvm"

// Backend simulates native binaries shot by shot. Safe for sequential use;
// the sweep loop is single-threaded by design.
type Backend struct {
	seedOverride *uint64
}

// Option configures a Backend.
type Option func(*Backend)

// WithSeed fixes the sampling seed base instead of deriving it from the
// (binary, binding) hashes. Mostly useful to decorrelate repeated runs in
// exploratory use; tests rely on the default derivation.
func WithSeed(seed uint64) Option {
	return func(b *Backend) {
		b.seedOverride = &seed
	}
}

// New creates a simulator backend.
func New(opts ...Option) *Backend {
	b := &Backend{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Compile lowers and links the program for the target. Programs that
// address qubits outside the target topology fail here, not at run time.
func (b *Backend) Compile(_ context.Context, p *prog.Program, t *device.Target) (*native.Binary, error) {
	available := make(map[int]bool, len(t.Qubits))
	for _, q := range t.Qubits {
		available[q] = true
	}
	for _, q := range p.Qubits() {
		if !available[q] {
			return nil, &native.CompileError{Target: t.ID,
				Message: fmt.Sprintf("qubit %d is not addressable on this target", q)}
		}
	}
	return native.Compile(p, t.ID, t.Native)
}

// Run executes the binary once per shot and returns the full outcome
// batch. Blocks until all shots complete; context cancellation aborts the
// batch with no partial result.
func (b *Backend) Run(ctx context.Context, bin *native.Binary, mem prog.MemoryMap) (*prog.Result, error) {
	// Revalidate at the boundary: the binding contract holds even for
	// callers that bypassed prog.NewMemoryMap.
	mem, err := prog.NewMemoryMap(bin, mem)
	if err != nil {
		return nil, err
	}
	angles, err := bin.ResolveSlots(mem)
	if err != nil {
		return nil, err
	}

	seed, err := b.seed(bin, mem)
	if err != nil {
		return nil, err
	}

	// Dense qubit indexing: simulate only the qubits the binary touches.
	qubits := bin.Qubits()
	dense := make(map[int]int, len(qubits))
	for i, q := range qubits {
		dense[q] = i
	}

	result := &prog.Result{
		Shots:   bin.Shots,
		Readout: make(map[string][][]uint8),
	}
	for _, r := range bin.Registers {
		if r.Type != prog.RegBit {
			continue
		}
		rows := make([][]uint8, bin.Shots)
		for i := range rows {
			rows[i] = make([]uint8, r.Length)
		}
		result.Readout[r.Name] = rows
	}

	for shot := 0; shot < bin.Shots; shot++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run aborted at shot %d: %w", shot, err)
		}
		rng := rand.New(rand.NewPCG(seed, uint64(shot)))
		if err := b.runShot(bin, angles, dense, rng, result, shot); err != nil {
			return nil, err
		}
	}

	slog.Debug("batch executed",
		"target", bin.Target,
		"shots", bin.Shots,
		"qubits", len(qubits),
	)
	return result, nil
}

func (b *Backend) runShot(
	bin *native.Binary,
	angles []float64,
	dense map[int]int,
	rng *rand.Rand,
	result *prog.Result,
	shot int,
) error {
	st := newState(len(dense))
	for _, w := range bin.Words {
		switch w.Op {
		case string(prog.GateRZ):
			st.rz(dense[w.Qubits[0]], wordAngle(w, angles))
		case string(prog.GateRX):
			st.rx(dense[w.Qubits[0]], wordAngle(w, angles))
		case string(prog.GateRY):
			st.ry(dense[w.Qubits[0]], wordAngle(w, angles))
		case string(prog.GateSX):
			st.sx(dense[w.Qubits[0]])
		case string(prog.GateX):
			st.x(dense[w.Qubits[0]])
		case string(prog.GateH):
			st.h(dense[w.Qubits[0]])
		case string(prog.GateCZ):
			st.cz(dense[w.Qubits[0]], dense[w.Qubits[1]])
		case native.OpMeasure:
			q := dense[w.Qubits[0]]
			p1 := st.prob1(q)
			var outcome uint8
			prob := 1 - p1
			if rng.Float64() < p1 {
				outcome = 1
				prob = p1
			}
			st.collapse(q, outcome, prob)
			result.Readout[w.Into.Register][shot][w.Into.Index] = outcome
		default:
			return fmt.Errorf("unknown opcode %q", w.Op)
		}
	}
	return nil
}

func wordAngle(w native.Word, angles []float64) float64 {
	if w.Slot != native.NoSlot {
		return angles[w.Slot]
	}
	return w.Angle
}

// seed derives the sampling seed base. By default it is a function of the
// binary and binding hashes, so the same artifact bound to the same values
// reproduces the same outcome batch.
func (b *Backend) seed(bin *native.Binary, mem prog.MemoryMap) (uint64, error) {
	if b.seedOverride != nil {
		return *b.seedOverride, nil
	}
	binHash, err := bin.Hash()
	if err != nil {
		return 0, err
	}
	memHash, err := mem.Hash()
	if err != nil {
		return 0, err
	}
	h := sha256.Sum256([]byte(binHash + "\x00" + memHash))
	return binary.BigEndian.Uint64(h[:8]), nil
}
