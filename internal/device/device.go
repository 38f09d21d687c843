// Package device resolves logical target identifiers to handles that
// expose the target's addressable qubits plus compile and run operations.
// Target catalogs are CUE files; the backend behind each handle is an
// injected interface so the whole pipeline runs against the in-process
// simulator and, eventually, real hardware drivers.
package device

import (
	"context"

	"github.com/rigel-lab/qsweep/internal/native"
	"github.com/rigel-lab/qsweep/internal/prog"
)

// Status describes whether a target is currently schedulable by the
// caller.
type Status string

const (
	StatusOnline   Status = "online"
	StatusOffline  Status = "offline"
	StatusReserved Status = "reserved"
)

// ValidStatuses defines the allowed target statuses.
var ValidStatuses = map[Status]bool{
	StatusOnline:   true,
	StatusOffline:  true,
	StatusReserved: true,
}

// Target is one entry of a catalog: an addressable hardware or simulator
// unit with a declared native gate set.
type Target struct {
	ID          string
	Description string
	Driver      string
	Status      Status
	Qubits      []int
	Native      native.GateSet
}

// Backend is the injected capability interface behind a handle: exactly
// compile and run. Implemented by qvm.Backend (deterministic simulator)
// and by future hardware drivers.
type Backend interface {
	Compile(ctx context.Context, p *prog.Program, t *Target) (*native.Binary, error)
	Run(ctx context.Context, bin *native.Binary, mem prog.MemoryMap) (*prog.Result, error)
}

// Handle binds a resolved target to its backend. It is the only way the
// rest of the pipeline reaches a device.
type Handle struct {
	target  Target
	backend Backend
}

// Target returns the resolved target description.
func (h *Handle) Target() Target {
	return h.target
}

// Qubits returns the target's addressable qubit identifiers.
func (h *Handle) Qubits() []int {
	out := make([]int, len(h.target.Qubits))
	copy(out, h.target.Qubits)
	return out
}

// Compile delegates to the backend compiler for this target.
func (h *Handle) Compile(ctx context.Context, p *prog.Program) (*native.Binary, error) {
	return h.backend.Compile(ctx, p, &h.target)
}

// Run executes a compiled binary with the given parameter bindings.
// Blocks until the full outcome batch returns.
func (h *Handle) Run(ctx context.Context, bin *native.Binary, mem prog.MemoryMap) (*prog.Result, error) {
	return h.backend.Run(ctx, bin, mem)
}

// Resolver maps target identifiers to handles, gating on availability.
type Resolver struct {
	catalog  *Catalog
	backends map[string]Backend
}

// NewResolver creates a resolver over a catalog with no registered
// drivers. Register backends before resolving.
func NewResolver(catalog *Catalog) *Resolver {
	return &Resolver{
		catalog:  catalog,
		backends: make(map[string]Backend),
	}
}

// RegisterBackend associates a driver name with a backend implementation.
func (r *Resolver) RegisterBackend(driver string, b Backend) {
	r.backends[driver] = b
}

// Resolve returns a handle for the named target. Unknown targets, targets
// that are not currently online, and targets whose driver has no
// registered backend all fail; every failure here is fatal to the caller,
// no retry.
func (r *Resolver) Resolve(targetID string) (*Handle, error) {
	t, ok := r.catalog.Target(targetID)
	if !ok {
		return nil, &ResolveError{Code: ErrCodeTargetNotFound, Target: targetID}
	}
	if t.Status != StatusOnline {
		return nil, &ResolveError{Code: ErrCodeTargetUnavailable, Target: targetID, Status: t.Status}
	}
	b, ok := r.backends[t.Driver]
	if !ok {
		return nil, &ResolveError{Code: ErrCodeNoDriver, Target: targetID, Driver: t.Driver}
	}
	return &Handle{target: t, backend: b}, nil
}
