package prog

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// RegisterType enumerates the classical memory types a program can declare.
type RegisterType string

const (
	// RegBit is a single-bit-per-element register. Measurement outcomes are
	// written into bit registers.
	RegBit RegisterType = "bit"

	// RegReal is a float64-per-element register. Rotation angles reference
	// real registers as late-bound parameters.
	RegReal RegisterType = "real"
)

// ValidRegisterTypes defines the allowed register types.
var ValidRegisterTypes = map[RegisterType]bool{
	RegBit:  true,
	RegReal: true,
}

// Register is a named, typed, fixed-length block of classical memory
// attached to a program. Length and type are fixed at declaration time.
type Register struct {
	Name   string       `json:"name"`
	Type   RegisterType `json:"type"`
	Length int          `json:"length"`
}

// RegisterRef addresses one element of a declared register.
type RegisterRef struct {
	Register string `json:"register"`
	Index    int    `json:"index"`
}

func (r RegisterRef) String() string {
	return fmt.Sprintf("%s[%d]", r.Register, r.Index)
}

// NormalizeName returns the NFC normalization of a register or target name.
// Names are normalized once at declaration so that lookups and canonical
// serialization agree on a single byte representation.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}
