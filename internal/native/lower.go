package native

import (
	"math"

	"github.com/rigel-lab/qsweep/internal/prog"
)

// GateSet is the native vocabulary a target supports. Gates outside the
// set must decompose into it.
type GateSet map[prog.GateName]bool

// maxLowerDepth bounds recursive decomposition. The rewrite rules below
// terminate well before this; the guard turns a bad rule table into a
// CompileError instead of a stack overflow.
const maxLowerDepth = 8

// lower rewrites every gate in the body into the target's native set.
// Measurements pass through untouched. Angle expressions flow through the
// rewrites symbolically, so a parametric rotation stays parametric after
// decomposition.
func lower(body []prog.Instruction, set GateSet, target string) ([]prog.Instruction, error) {
	out := make([]prog.Instruction, 0, len(body))
	for _, in := range body {
		switch op := in.(type) {
		case prog.Measure:
			out = append(out, op)
		case prog.Gate:
			seq, err := lowerGate(op, set, target, 0)
			if err != nil {
				return nil, err
			}
			out = append(out, seq...)
		}
	}
	return out, nil
}

// lowerGate rewrites one gate using standard identities:
//
//	h      = rz(π/2) · sx · rz(π/2)           (up to global phase)
//	x      = sx · sx
//	rx(θ)  = rz(π/2) · sx · rz(θ+π) · sx · rz(π/2)
//	ry(θ)  = rz(-π/2) · rx(θ) · rz(π/2)
//
// Sequences are time-ordered (first element applied first). rz and cz have
// no decomposition here: a target without them cannot be compiled for.
func lowerGate(g prog.Gate, set GateSet, target string, depth int) ([]prog.Instruction, error) {
	if depth > maxLowerDepth {
		return nil, &CompileError{Target: target, Gate: string(g.Name),
			Message: "no native decomposition found"}
	}
	if set[g.Name] {
		return []prog.Instruction{g}, nil
	}

	q := g.Qubits[0]
	var seq []prog.Gate
	switch g.Name {
	case prog.GateH:
		seq = []prog.Gate{
			rz(q, prog.Const(math.Pi/2)),
			sx(q),
			rz(q, prog.Const(math.Pi/2)),
		}
	case prog.GateX:
		seq = []prog.Gate{sx(q), sx(q)}
	case prog.GateSX:
		if !set[prog.GateRX] {
			return nil, &CompileError{Target: target, Gate: string(g.Name),
				Message: "target supports neither sx nor rx"}
		}
		seq = []prog.Gate{{Name: prog.GateRX, Qubits: []int{q}, Angle: prog.Const(math.Pi / 2)}}
	case prog.GateRX:
		seq = []prog.Gate{
			rz(q, prog.Const(math.Pi/2)),
			sx(q),
			rz(q, g.Angle.Plus(math.Pi)),
			sx(q),
			rz(q, prog.Const(math.Pi/2)),
		}
	case prog.GateRY:
		seq = []prog.Gate{
			rz(q, prog.Const(-math.Pi/2)),
			{Name: prog.GateRX, Qubits: []int{q}, Angle: g.Angle},
			rz(q, prog.Const(math.Pi/2)),
		}
	default:
		// rz, cz, or anything future: native-or-nothing.
		return nil, &CompileError{Target: target, Gate: string(g.Name),
			Message: "gate is not in the target native set and has no decomposition"}
	}

	out := make([]prog.Instruction, 0, len(seq))
	for _, s := range seq {
		sub, err := lowerGate(s, set, target, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

func rz(q int, angle prog.Expr) prog.Gate {
	return prog.Gate{Name: prog.GateRZ, Qubits: []int{q}, Angle: angle}
}

func sx(q int) prog.Gate {
	return prog.Gate{Name: prog.GateSX, Qubits: []int{q}}
}

// peephole merges adjacent rz rotations on the same qubit and drops
// rotations that are identically zero modulo 2π. Merging is strictly
// adjacent: no commutation reasoning across intervening instructions.
func peephole(body []prog.Instruction) []prog.Instruction {
	out := make([]prog.Instruction, 0, len(body))
	for _, in := range body {
		g, isGate := in.(prog.Gate)
		if isGate && g.Name == prog.GateRZ {
			if g.Angle.IsZero() {
				continue
			}
			if len(out) > 0 {
				if prev, ok := out[len(out)-1].(prog.Gate); ok &&
					prev.Name == prog.GateRZ && prev.Qubits[0] == g.Qubits[0] {
					if merged, ok := prog.MergeExprs(prev.Angle, g.Angle); ok {
						if merged.IsZero() {
							out = out[:len(out)-1]
						} else {
							prev.Angle = merged
							out[len(out)-1] = prev
						}
						continue
					}
				}
			}
		}
		out = append(out, in)
	}
	return out
}
