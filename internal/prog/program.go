package prog

import (
	"fmt"
)

// DefaultShots is the repeat count used when a program never calls
// SetShots.
const DefaultShots = 1000

// Program is a finalized logical program: ordered register declarations,
// an ordered instruction list, and a repeat count. Immutable after Build.
type Program struct {
	name      string
	registers []Register
	byName    map[string]Register
	body      []Instruction
	shots     int
}

// Name returns the program name (may be empty for ad-hoc programs).
func (p *Program) Name() string { return p.name }

// Shots returns the number of independent repetitions one execution
// performs.
func (p *Program) Shots() int { return p.shots }

// Registers returns the declarations in declaration order. The slice is a
// copy; the program cannot be mutated through it.
func (p *Program) Registers() []Register {
	out := make([]Register, len(p.registers))
	copy(out, p.registers)
	return out
}

// Register looks up a declaration by (normalized) name.
func (p *Program) Register(name string) (Register, bool) {
	r, ok := p.byName[NormalizeName(name)]
	return r, ok
}

// Body returns the instruction list in program order. The slice is a copy.
func (p *Program) Body() []Instruction {
	out := make([]Instruction, len(p.body))
	copy(out, p.body)
	return out
}

// Qubits returns the sorted set of qubit indices the program touches.
func (p *Program) Qubits() []int {
	seen := map[int]bool{}
	for _, in := range p.body {
		switch op := in.(type) {
		case Gate:
			for _, q := range op.Qubits {
				seen[q] = true
			}
		case Measure:
			seen[op.Qubit] = true
		}
	}
	out := make([]int, 0, len(seen))
	for q := range seen {
		out = append(out, q)
	}
	sortInts(out)
	return out
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}

// Builder accumulates declarations and instructions, enforcing
// declare-before-use, then freezes them into a Program.
type Builder struct {
	name      string
	registers []Register
	byName    map[string]Register
	body      []Instruction
	shots     int
}

// NewBuilder creates an empty builder. The name is informational and
// becomes part of the program's identity hash.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:   NormalizeName(name),
		byName: make(map[string]Register),
		shots:  DefaultShots,
	}
}

// Declare registers a new named memory block. Duplicate names fail with a
// NameConflict error regardless of type or length.
func (b *Builder) Declare(name string, typ RegisterType, length int) error {
	if !ValidRegisterTypes[typ] {
		return &BuildError{Code: ErrCodeBadDeclaration, Register: name,
			Message: fmt.Sprintf("unknown register type %q", typ)}
	}
	if length < 1 {
		return &BuildError{Code: ErrCodeBadDeclaration, Register: name,
			Message: fmt.Sprintf("length must be >= 1, got %d", length)}
	}
	n := NormalizeName(name)
	if n == "" {
		return &BuildError{Code: ErrCodeBadDeclaration, Message: "empty register name"}
	}
	if _, exists := b.byName[n]; exists {
		return &BuildError{Code: ErrCodeNameConflict, Register: n,
			Message: "register already declared"}
	}
	reg := Register{Name: n, Type: typ, Length: length}
	b.byName[n] = reg
	b.registers = append(b.registers, reg)
	return nil
}

// AppendGate appends a gate instruction. The gate must be in the known
// vocabulary, carry the right number of qubit operands, and any parametric
// angle must reference a previously declared real register element.
func (b *Builder) AppendGate(name GateName, angle Expr, qubits ...int) error {
	if !KnownGate(name) {
		return &BuildError{Code: ErrCodeBadInstruction,
			Message: fmt.Sprintf("unknown gate %q", name)}
	}
	if len(qubits) != GateArity(name) {
		return &BuildError{Code: ErrCodeBadInstruction,
			Message: fmt.Sprintf("gate %s takes %d qubits, got %d", name, GateArity(name), len(qubits))}
	}
	for _, q := range qubits {
		if q < 0 {
			return &BuildError{Code: ErrCodeBadInstruction,
				Message: fmt.Sprintf("negative qubit index %d", q)}
		}
	}
	if !GateHasAngle(name) && (angle != Expr{}) {
		return &BuildError{Code: ErrCodeBadInstruction,
			Message: fmt.Sprintf("gate %s takes no angle", name)}
	}
	if GateHasAngle(name) && !angle.IsConst() {
		if err := b.checkParamRef(angle); err != nil {
			return err
		}
	}
	b.body = append(b.body, Gate{Name: name, Qubits: qubits, Angle: angle})
	return nil
}

// AppendMeasure appends a measurement writing into a declared bit register
// element.
func (b *Builder) AppendMeasure(qubit int, into RegisterRef) error {
	if qubit < 0 {
		return &BuildError{Code: ErrCodeBadInstruction,
			Message: fmt.Sprintf("negative qubit index %d", qubit)}
	}
	into.Register = NormalizeName(into.Register)
	reg, ok := b.byName[into.Register]
	if !ok {
		return &BuildError{Code: ErrCodeUndeclared, Register: into.Register,
			Message: "measurement target not declared"}
	}
	if reg.Type != RegBit {
		return &BuildError{Code: ErrCodeTypeMismatch, Register: into.Register,
			Message: fmt.Sprintf("measurement target must be %s, declared %s", RegBit, reg.Type)}
	}
	if into.Index < 0 || into.Index >= reg.Length {
		return &BuildError{Code: ErrCodeBadInstruction, Register: into.Register,
			Message: fmt.Sprintf("index %d out of range for length %d", into.Index, reg.Length)}
	}
	b.body = append(b.body, Measure{Qubit: qubit, Into: into})
	return nil
}

// SetShots wraps the instruction sequence so one execution performs count
// independent repetitions. No upper bound is enforced.
func (b *Builder) SetShots(count int) error {
	if count < 1 {
		return &BuildError{Code: ErrCodeBadDeclaration,
			Message: fmt.Sprintf("shots must be >= 1, got %d", count)}
	}
	b.shots = count
	return nil
}

// Build freezes the builder into an immutable Program. The builder remains
// usable; the returned program holds copies of its state.
func (b *Builder) Build() *Program {
	p := &Program{
		name:      b.name,
		registers: make([]Register, len(b.registers)),
		byName:    make(map[string]Register, len(b.byName)),
		body:      make([]Instruction, len(b.body)),
		shots:     b.shots,
	}
	copy(p.registers, b.registers)
	copy(p.body, b.body)
	for k, v := range b.byName {
		p.byName[k] = v
	}
	return p
}

func (b *Builder) checkParamRef(angle Expr) error {
	reg, ok := b.byName[angle.Param]
	if !ok {
		return &BuildError{Code: ErrCodeUndeclared, Register: angle.Param,
			Message: "angle parameter not declared"}
	}
	if reg.Type != RegReal {
		return &BuildError{Code: ErrCodeTypeMismatch, Register: angle.Param,
			Message: fmt.Sprintf("angle parameter must be %s, declared %s", RegReal, reg.Type)}
	}
	if angle.Index < 0 || angle.Index >= reg.Length {
		return &BuildError{Code: ErrCodeBadInstruction, Register: angle.Param,
			Message: fmt.Sprintf("index %d out of range for length %d", angle.Index, reg.Length)}
	}
	return nil
}

// canonicalMap returns the map form used for canonical serialization and
// identity hashing.
func (p *Program) canonicalMap() map[string]any {
	regs := make([]any, len(p.registers))
	for i, r := range p.registers {
		regs[i] = map[string]any{
			"name":   r.Name,
			"type":   string(r.Type),
			"length": r.Length,
		}
	}
	body := make([]any, len(p.body))
	for i, in := range p.body {
		switch op := in.(type) {
		case Gate:
			qs := make([]any, len(op.Qubits))
			for j, q := range op.Qubits {
				qs[j] = q
			}
			m := map[string]any{"gate": string(op.Name), "qubits": qs}
			if GateHasAngle(op.Name) {
				m["angle"] = op.Angle.canonicalMap()
			}
			body[i] = m
		case Measure:
			body[i] = map[string]any{
				"measure": op.Qubit,
				"into":    map[string]any{"register": op.Into.Register, "index": op.Into.Index},
			}
		}
	}
	return map[string]any{
		"name":      p.name,
		"registers": regs,
		"body":      body,
		"shots":     p.shots,
	}
}
