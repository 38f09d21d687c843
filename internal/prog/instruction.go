package prog

import (
	"fmt"
	"strings"
)

// GateName identifies a gate in the program-level vocabulary. Targets
// declare which subset is native; everything else must lower to that subset.
type GateName string

const (
	GateRX GateName = "rx"
	GateRY GateName = "ry"
	GateRZ GateName = "rz"
	GateH  GateName = "h"
	GateX  GateName = "x"
	GateSX GateName = "sx"
	GateCZ GateName = "cz"
)

// gateShape describes the operand shape of each known gate.
type gateShape struct {
	qubits   int
	hasAngle bool
}

var gateShapes = map[GateName]gateShape{
	GateRX: {qubits: 1, hasAngle: true},
	GateRY: {qubits: 1, hasAngle: true},
	GateRZ: {qubits: 1, hasAngle: true},
	GateH:  {qubits: 1},
	GateX:  {qubits: 1},
	GateSX: {qubits: 1},
	GateCZ: {qubits: 2},
}

// KnownGate reports whether name is in the program-level gate vocabulary.
func KnownGate(name GateName) bool {
	_, ok := gateShapes[name]
	return ok
}

// GateArity returns the number of qubit operands for a known gate.
func GateArity(name GateName) int {
	return gateShapes[name].qubits
}

// GateHasAngle reports whether a known gate takes an angle operand.
func GateHasAngle(name GateName) bool {
	return gateShapes[name].hasAngle
}

// Instruction is a sealed interface over Gate and Measure.
type Instruction interface {
	instruction()
	String() string
}

// Gate applies a unitary to one or two qubits. Rotation gates carry an
// angle expression which may reference a declared real register.
type Gate struct {
	Name   GateName `json:"gate"`
	Qubits []int    `json:"qubits"`
	Angle  Expr     `json:"angle,omitempty"`
}

func (Gate) instruction() {}

func (g Gate) String() string {
	qs := make([]string, len(g.Qubits))
	for i, q := range g.Qubits {
		qs[i] = fmt.Sprintf("%d", q)
	}
	if GateHasAngle(g.Name) {
		return fmt.Sprintf("%s(%s) %s", g.Name, g.Angle, strings.Join(qs, " "))
	}
	return fmt.Sprintf("%s %s", g.Name, strings.Join(qs, " "))
}

// Measure reads one qubit and stores the outcome bit into a bit register
// element.
type Measure struct {
	Qubit int         `json:"qubit"`
	Into  RegisterRef `json:"into"`
}

func (Measure) instruction() {}

func (m Measure) String() string {
	return fmt.Sprintf("measure %d -> %s", m.Qubit, m.Into)
}
