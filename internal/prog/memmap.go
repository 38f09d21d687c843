package prog

// MemoryMap binds concrete values to declared real registers for one
// execution. Keys are register names, values supply exactly one float per
// declared element.
//
// A MemoryMap is validated against the originating program (or the binary
// compiled from it) at construction time: unknown keys and arity mismatches
// fail before any run call is issued. Angle values themselves are
// unbounded; a rotation angle has no enforced domain.
type MemoryMap map[string][]float64

// Declarations is satisfied by *Program and by compiled binaries, both of
// which know the registers a memory map must match.
type Declarations interface {
	Register(name string) (Register, bool)
}

// NewMemoryMap validates raw bindings against the declared registers and
// returns a normalized copy. Every key must name a declared real register
// and carry exactly Length values.
func NewMemoryMap(decls Declarations, raw map[string][]float64) (MemoryMap, error) {
	mem := make(MemoryMap, len(raw))
	for name, vals := range raw {
		n := NormalizeName(name)
		reg, ok := decls.Register(n)
		if !ok {
			return nil, &BindingError{Code: ErrCodeUnknownRegister, Register: n}
		}
		if reg.Type != RegReal {
			return nil, &BindingError{Code: ErrCodeNotBindable, Register: n}
		}
		if len(vals) != reg.Length {
			return nil, &BindingError{
				Code:     ErrCodeArityMismatch,
				Register: n,
				Want:     reg.Length,
				Got:      len(vals),
			}
		}
		cp := make([]float64, len(vals))
		copy(cp, vals)
		mem[n] = cp
	}
	return mem, nil
}

// Single builds a memory map binding one value to a length-1 register.
// This is the common shape for a parameter sweep.
func Single(decls Declarations, register string, value float64) (MemoryMap, error) {
	return NewMemoryMap(decls, map[string][]float64{register: {value}})
}

// Value returns the bound value for one register element.
func (m MemoryMap) Value(register string, index int) (float64, bool) {
	vals, ok := m[NormalizeName(register)]
	if !ok || index < 0 || index >= len(vals) {
		return 0, false
	}
	return vals[index], true
}

// canonicalMap returns the map form used for binding hashes.
func (m MemoryMap) canonicalMap() map[string]any {
	out := make(map[string]any, len(m))
	for name, vals := range m {
		list := make([]any, len(vals))
		for i, v := range vals {
			list[i] = v
		}
		out[name] = list
	}
	return out
}
