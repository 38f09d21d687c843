// Package native implements the two-stage program compiler: lowering
// arbitrary gates onto a target's native instruction set, then linking the
// lowered sequence into a parametric Binary whose unresolved angle slots
// are patched at run time. One compilation serves any number of parameter
// values.
package native

import (
	"log/slog"

	"github.com/rigel-lab/qsweep/internal/prog"
)

// Compile lowers a finalized program onto the native gate set and links
// the result into a parametric binary. Pure: no I/O, no clock, no
// identifiers beyond the program's own content hash.
func Compile(p *prog.Program, target string, set GateSet) (*Binary, error) {
	programHash, err := p.Hash()
	if err != nil {
		return nil, err
	}

	// Stage 1: architecture lowering.
	lowered, err := lower(p.Body(), set, target)
	if err != nil {
		return nil, err
	}
	lowered = peephole(lowered)

	// Stage 2: binary generation. Constant angles are inlined; parametric
	// angles become patch-table slots.
	bin := &Binary{
		Target:      target,
		ProgramHash: programHash,
		Shots:       p.Shots(),
		Registers:   p.Registers(),
	}
	for _, in := range lowered {
		switch op := in.(type) {
		case prog.Gate:
			w := Word{Op: string(op.Name), Qubits: op.Qubits, Slot: NoSlot}
			if prog.GateHasAngle(op.Name) {
				if op.Angle.IsConst() {
					w.Angle = op.Angle.Eval(0)
				} else {
					w.Slot = len(bin.Patch)
					bin.Patch = append(bin.Patch, PatchEntry{
						Slot:     w.Slot,
						Register: op.Angle.Param,
						Index:    op.Angle.Index,
						Coeff:    op.Angle.Coeff,
						Offset:   op.Angle.Const,
					})
				}
			}
			bin.Words = append(bin.Words, w)
		case prog.Measure:
			into := op.Into
			bin.Words = append(bin.Words, Word{
				Op:     OpMeasure,
				Qubits: []int{op.Qubit},
				Slot:   NoSlot,
				Into:   &into,
			})
		}
	}

	slog.Debug("program compiled",
		"target", target,
		"program_hash", programHash,
		"words", len(bin.Words),
		"slots", len(bin.Patch),
	)
	return bin, nil
}
