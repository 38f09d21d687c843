package native

import (
	"fmt"

	"github.com/rigel-lab/qsweep/internal/prog"
)

// OpMeasure is the opcode of the measurement word. Every other opcode is a
// native gate name from the target's declared set.
const OpMeasure = "measure"

// NoSlot marks a word whose angle is fully resolved at compile time.
const NoSlot = -1

// Word is one native instruction. Rotation words either carry a constant
// Angle (Slot == NoSlot) or reference a patch-table slot resolved at run
// time.
type Word struct {
	Op     string            `json:"op"`
	Qubits []int             `json:"qubits"`
	Angle  float64           `json:"angle,omitempty"`
	Slot   int               `json:"slot"`
	Into   *prog.RegisterRef `json:"into,omitempty"`
}

// PatchEntry maps a patch-table slot to the register element whose bound
// value fills it, through the affine transform coeff*value + offset that
// decomposition accumulated.
type PatchEntry struct {
	Slot     int     `json:"slot"`
	Register string  `json:"register"`
	Index    int     `json:"index"`
	Coeff    float64 `json:"coeff"`
	Offset   float64 `json:"offset"`
}

// Binary is the compiled artifact: an executable native instruction
// sequence with named, late-bound parameter slots. Structurally immutable
// after compilation; only the values patched into slots vary between
// executions, and patching never triggers recompilation.
type Binary struct {
	Target      string          `json:"target"`
	ProgramHash string          `json:"program_hash"`
	Shots       int             `json:"shots"`
	Registers   []prog.Register `json:"registers"`
	Words       []Word          `json:"words"`
	Patch       []PatchEntry    `json:"patch"`
}

// Register looks up a declared register by name, satisfying
// prog.Declarations so memory maps validate directly against a binary.
func (b *Binary) Register(name string) (prog.Register, bool) {
	n := prog.NormalizeName(name)
	for _, r := range b.Registers {
		if r.Name == n {
			return r, true
		}
	}
	return prog.Register{}, false
}

// Qubits returns the sorted set of qubit indices the binary touches.
func (b *Binary) Qubits() []int {
	seen := map[int]bool{}
	for _, w := range b.Words {
		for _, q := range w.Qubits {
			seen[q] = true
		}
	}
	out := make([]int, 0, len(seen))
	for q := range seen {
		out = append(out, q)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// ResolveSlots computes the concrete angle for every patch slot from a
// validated memory map. A slot whose register is absent from the map is a
// binding error.
func (b *Binary) ResolveSlots(mem prog.MemoryMap) ([]float64, error) {
	angles := make([]float64, len(b.Patch))
	for _, e := range b.Patch {
		v, ok := mem.Value(e.Register, e.Index)
		if !ok {
			return nil, &prog.BindingError{
				Code:     prog.ErrCodeUnknownRegister,
				Register: e.Register,
			}
		}
		angles[e.Slot] = e.Coeff*v + e.Offset
	}
	return angles, nil
}

// Hash computes the content-addressed identity of the binary. Compilation
// is a pure function of (program, target native set): no timestamps or
// generated identifiers enter the binary, so recompiling an identical
// program yields an identical hash.
func (b *Binary) Hash() (string, error) {
	canonical, err := prog.MarshalCanonical(b.canonicalMap())
	if err != nil {
		return "", fmt.Errorf("binary hash: %w", err)
	}
	return prog.HashWithDomain(prog.DomainBinary, canonical), nil
}

func (b *Binary) canonicalMap() map[string]any {
	regs := make([]any, len(b.Registers))
	for i, r := range b.Registers {
		regs[i] = map[string]any{"name": r.Name, "type": string(r.Type), "length": r.Length}
	}
	words := make([]any, len(b.Words))
	for i, w := range b.Words {
		qs := make([]any, len(w.Qubits))
		for j, q := range w.Qubits {
			qs[j] = q
		}
		m := map[string]any{"op": w.Op, "qubits": qs, "slot": w.Slot}
		if w.Slot == NoSlot && w.Angle != 0 {
			m["angle"] = w.Angle
		}
		if w.Into != nil {
			m["into"] = map[string]any{"register": w.Into.Register, "index": w.Into.Index}
		}
		words[i] = m
	}
	patch := make([]any, len(b.Patch))
	for i, e := range b.Patch {
		patch[i] = map[string]any{
			"slot":     e.Slot,
			"register": e.Register,
			"index":    e.Index,
			"coeff":    e.Coeff,
			"offset":   e.Offset,
		}
	}
	return map[string]any{
		"target":       b.Target,
		"program_hash": b.ProgramHash,
		"shots":        b.Shots,
		"registers":    regs,
		"words":        words,
		"patch":        patch,
	}
}
