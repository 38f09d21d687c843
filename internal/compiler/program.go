// Package compiler parses CUE program sources into validated programs.
//
// Programs are authored as CUE structs under a top-level "program" field:
//
//	program: rabi: {
//		shots: 1000
//		declare: {
//			theta: {type: "real", length: 1}
//			ro:    {type: "bit", length: 1}
//		}
//		body: [
//			{gate: "rx", qubits: [0], angle: {param: "theta"}},
//			{measure: 0, into: "ro"},
//		]
//	}
//
// The compiler walks the CUE value with the SDK's Go API (not a CLI
// subprocess) and feeds every declaration and instruction through the
// program builder, so CUE-level shape errors and program-level semantic
// errors surface from one call.
package compiler

import (
	"fmt"
	"math"

	"cuelang.org/go/cue"

	"github.com/rigel-lab/qsweep/internal/prog"
)

// CompileProgram parses a CUE value into a Program.
//
// The CUE value should be the program struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`program: rabi: { ... }`)
//	p, err := CompileProgram(v.LookupPath(cue.ParsePath(`program.rabi`)))
func CompileProgram(v cue.Value) (*prog.Program, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	// Program name comes from the struct label.
	name := "program"
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		name = fieldName(labels[len(labels)-1])
	}

	b := prog.NewBuilder(name)

	if shotsVal := v.LookupPath(cue.ParsePath("shots")); shotsVal.Exists() {
		shots, err := shotsVal.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if err := b.SetShots(int(shots)); err != nil {
			return nil, err
		}
	}

	if err := parseDeclarations(b, v); err != nil {
		return nil, err
	}
	if err := parseBody(b, v); err != nil {
		return nil, err
	}

	return b.Build(), nil
}

// parseDeclarations walks the declare block. Declaration order is the
// CUE source order, which fixes register order in the built program.
func parseDeclarations(b *prog.Builder, v cue.Value) error {
	declVal := v.LookupPath(cue.ParsePath("declare"))
	if !declVal.Exists() {
		return &CompileError{
			Field:   "declare",
			Message: "declare block is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := declVal.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		regName := fieldName(iter.Selector())
		regVal := iter.Value()

		typStr, err := regVal.LookupPath(cue.ParsePath("type")).String()
		if err != nil {
			return formatCUEError(err)
		}

		length := 1
		if lenVal := regVal.LookupPath(cue.ParsePath("length")); lenVal.Exists() {
			n, err := lenVal.Int64()
			if err != nil {
				return formatCUEError(err)
			}
			length = int(n)
		}

		if err := b.Declare(regName, prog.RegisterType(typStr), length); err != nil {
			return err
		}
	}
	return nil
}

// parseBody walks the body list in order.
func parseBody(b *prog.Builder, v cue.Value) error {
	bodyVal := v.LookupPath(cue.ParsePath("body"))
	if !bodyVal.Exists() {
		return &CompileError{
			Field:   "body",
			Message: "body is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := bodyVal.List()
	if err != nil {
		return formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		instrVal := iter.Value()
		if err := parseInstruction(b, instrVal); err != nil {
			return fmt.Errorf("body[%d]: %w", i, err)
		}
	}
	return nil
}

func parseInstruction(b *prog.Builder, v cue.Value) error {
	if gateVal := v.LookupPath(cue.ParsePath("gate")); gateVal.Exists() {
		return parseGate(b, v, gateVal)
	}
	if measVal := v.LookupPath(cue.ParsePath("measure")); measVal.Exists() {
		return parseMeasure(b, v, measVal)
	}
	return &CompileError{
		Field:   "body",
		Message: "instruction must have a gate or measure field",
		Pos:     v.Pos(),
	}
}

func parseGate(b *prog.Builder, v, gateVal cue.Value) error {
	gateName, err := gateVal.String()
	if err != nil {
		return formatCUEError(err)
	}

	var qubits []int
	if qVal := v.LookupPath(cue.ParsePath("qubits")); qVal.Exists() {
		qIter, err := qVal.List()
		if err != nil {
			return formatCUEError(err)
		}
		for qIter.Next() {
			q, err := qIter.Value().Int64()
			if err != nil {
				return formatCUEError(err)
			}
			qubits = append(qubits, int(q))
		}
	} else if qVal := v.LookupPath(cue.ParsePath("qubit")); qVal.Exists() {
		// Single-qubit shorthand.
		q, err := qVal.Int64()
		if err != nil {
			return formatCUEError(err)
		}
		qubits = []int{int(q)}
	}

	var angle prog.Expr
	if angleVal := v.LookupPath(cue.ParsePath("angle")); angleVal.Exists() {
		angle, err = parseAngle(angleVal)
		if err != nil {
			return err
		}
	}

	return b.AppendGate(prog.GateName(gateName), angle, qubits...)
}

func parseMeasure(b *prog.Builder, v, measVal cue.Value) error {
	qubit, err := measVal.Int64()
	if err != nil {
		return formatCUEError(err)
	}

	intoVal := v.LookupPath(cue.ParsePath("into"))
	if !intoVal.Exists() {
		return &CompileError{
			Field:   "measure",
			Message: "measure requires an into register",
			Pos:     v.Pos(),
		}
	}
	register, err := intoVal.String()
	if err != nil {
		return formatCUEError(err)
	}

	index := 0
	if idxVal := v.LookupPath(cue.ParsePath("index")); idxVal.Exists() {
		n, err := idxVal.Int64()
		if err != nil {
			return formatCUEError(err)
		}
		index = int(n)
	}

	return b.AppendMeasure(int(qubit), prog.RegisterRef{Register: register, Index: index})
}

// parseAngle accepts either a bare number (constant angle, in radians) or
// an affine struct:
//
//	angle: 1.5708
//	angle: {param: "theta"}
//	angle: {param: "theta", index: 1, coeff: 2.0, const: 0.7854}
//	angle: {const: "pi/2"}   // symbolic constants: pi, pi/2, pi/4, 2pi
func parseAngle(v cue.Value) (prog.Expr, error) {
	if f, err := v.Float64(); err == nil {
		return prog.Const(f), nil
	}

	paramVal := v.LookupPath(cue.ParsePath("param"))
	constVal := v.LookupPath(cue.ParsePath("const"))
	if !paramVal.Exists() && !constVal.Exists() {
		return prog.Expr{}, &CompileError{
			Field:   "angle",
			Message: "angle must be a number or a struct with param and/or const",
			Pos:     v.Pos(),
		}
	}

	var expr prog.Expr
	if paramVal.Exists() {
		register, err := paramVal.String()
		if err != nil {
			return expr, formatCUEError(err)
		}
		index := 0
		if idxVal := v.LookupPath(cue.ParsePath("index")); idxVal.Exists() {
			n, err := idxVal.Int64()
			if err != nil {
				return expr, formatCUEError(err)
			}
			index = int(n)
		}
		expr = prog.Param(register, index)
		if coeffVal := v.LookupPath(cue.ParsePath("coeff")); coeffVal.Exists() {
			c, err := coeffVal.Float64()
			if err != nil {
				return expr, formatCUEError(err)
			}
			expr.Coeff = c
		}
	}

	if constVal.Exists() {
		offset, err := parseAngleConst(constVal)
		if err != nil {
			return expr, err
		}
		expr.Const = offset
	}

	return expr, nil
}

// symbolic angle constants accepted where a numeric const would do
var angleConstants = map[string]float64{
	"pi":    math.Pi,
	"pi/2":  math.Pi / 2,
	"pi/4":  math.Pi / 4,
	"2pi":   2 * math.Pi,
	"-pi":   -math.Pi,
	"-pi/2": -math.Pi / 2,
}

func parseAngleConst(v cue.Value) (float64, error) {
	if f, err := v.Float64(); err == nil {
		return f, nil
	}
	s, err := v.String()
	if err != nil {
		return 0, formatCUEError(err)
	}
	if f, ok := angleConstants[s]; ok {
		return f, nil
	}
	return 0, &CompileError{
		Field:   "angle",
		Message: fmt.Sprintf("unknown angle constant %q", s),
		Pos:     v.Pos(),
	}
}

// fieldName returns the unquoted label of a selector. Quoted labels like
// "my-program" come back without quotes.
func fieldName(sel cue.Selector) string {
	if sel.LabelType() == cue.StringLabel {
		return sel.Unquoted()
	}
	return sel.String()
}
