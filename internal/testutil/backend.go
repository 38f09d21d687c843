// Package testutil provides deterministic test doubles for the device
// layer.
//
// FakeBackend replaces the statevector simulator in tests that care about
// call counts and ordering rather than quantum behavior: the visibility
// it reports is exactly the bound parameter value, clamped to [0, 1], so
// assertions can predict every point without simulating anything.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rigel-lab/qsweep/internal/device"
	"github.com/rigel-lab/qsweep/internal/native"
	"github.com/rigel-lab/qsweep/internal/prog"
)

// Driver is the catalog driver name fake targets use.
const Driver = "fake"

// ErrInjected is the failure FakeBackend returns at the configured run.
var ErrInjected = errors.New("injected backend failure")

// FakeBackend is a deterministic device.Backend double. It counts calls,
// records every bound value, and reports visibility equal to the bound
// value clamped to [0, 1].
type FakeBackend struct {
	// Register is the real register whose bound value drives the
	// reported visibility.
	Register string

	// FailRunAt injects ErrInjected on the run call with that ordinal
	// (0-based). Negative disables injection.
	FailRunAt int

	// FailCompile makes every compile call fail.
	FailCompile bool

	Compiles int
	Runs     int
	Bound    []float64
}

// NewFakeBackend creates a fake backend driven by the named register,
// with failure injection disabled.
func NewFakeBackend(register string) *FakeBackend {
	return &FakeBackend{Register: register, FailRunAt: -1}
}

// Compile counts the call and delegates to the real compiler against the
// target's native set, so fakes still exercise lowering and linking.
func (f *FakeBackend) Compile(_ context.Context, p *prog.Program, t *device.Target) (*native.Binary, error) {
	f.Compiles++
	if f.FailCompile {
		return nil, errors.New("injected compile failure")
	}
	return native.Compile(p, t.ID, t.Native)
}

// Run manufactures an outcome batch whose mean equals the bound value.
func (f *FakeBackend) Run(_ context.Context, bin *native.Binary, mem prog.MemoryMap) (*prog.Result, error) {
	ordinal := f.Runs
	f.Runs++
	if ordinal == f.FailRunAt {
		return nil, ErrInjected
	}

	v, ok := mem.Value(f.Register, 0)
	if !ok {
		return nil, fmt.Errorf("fake backend: %s not bound", f.Register)
	}
	f.Bound = append(f.Bound, v)

	frac := math.Min(math.Max(v, 0), 1)
	readout := make(map[string][][]uint8)
	for _, reg := range bin.Registers {
		if reg.Type != prog.RegBit {
			continue
		}
		ones := int(math.Round(frac * float64(bin.Shots)))
		rows := make([][]uint8, bin.Shots)
		for i := range rows {
			rows[i] = make([]uint8, reg.Length)
			if i < ones {
				for j := range rows[i] {
					rows[i][j] = 1
				}
			}
		}
		readout[reg.Name] = rows
	}
	return &prog.Result{Shots: bin.Shots, Readout: readout}, nil
}

const fakeCatalogSrc = `target: "fake-1q": {
	description: "single-qubit fake target"
	driver:      "fake"
	status:      "online"
	qubits: [0]
	native: ["rz", "sx", "x"]
}

target: "fake-2q": {
	description: "two-qubit fake target"
	driver:      "fake"
	status:      "online"
	qubits: [0, 1]
	native: ["rz", "sx", "x", "cz"]
}`

// Catalog returns a catalog of fake targets.
func Catalog() *device.Catalog {
	c, err := device.ParseCatalog([]byte(fakeCatalogSrc), "fake.cue")
	if err != nil {
		panic(fmt.Sprintf("testutil: fake catalog: %v", err))
	}
	return c
}

// NewHandle resolves a fake target backed by b.
func NewHandle(targetID string, b *FakeBackend) (*device.Handle, error) {
	r := device.NewResolver(Catalog())
	r.RegisterBackend(Driver, b)
	return r.Resolve(targetID)
}
