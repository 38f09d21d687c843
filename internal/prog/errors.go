package prog

import (
	"errors"
	"fmt"
)

// BuildErrorCode categorizes program construction errors.
type BuildErrorCode string

const (
	// ErrCodeNameConflict indicates a register name was declared twice.
	ErrCodeNameConflict BuildErrorCode = "NAME_CONFLICT"

	// ErrCodeUndeclared indicates an instruction references a register that
	// was never declared.
	ErrCodeUndeclared BuildErrorCode = "UNDECLARED_REGISTER"

	// ErrCodeTypeMismatch indicates a register reference with the wrong
	// declared type (e.g. measuring into a real register).
	ErrCodeTypeMismatch BuildErrorCode = "TYPE_MISMATCH"

	// ErrCodeBadInstruction indicates a malformed instruction: unknown gate,
	// wrong qubit count, out-of-range register index, or an angle on a gate
	// that takes none.
	ErrCodeBadInstruction BuildErrorCode = "BAD_INSTRUCTION"

	// ErrCodeBadDeclaration indicates an invalid declaration: unknown type
	// or non-positive length.
	ErrCodeBadDeclaration BuildErrorCode = "BAD_DECLARATION"
)

// BuildError is returned by Builder operations when a declaration or
// instruction violates the program invariants.
type BuildError struct {
	Code     BuildErrorCode
	Register string
	Message  string
}

func (e *BuildError) Error() string {
	if e.Register != "" {
		return fmt.Sprintf("%s: %s (register=%s)", e.Code, e.Message, e.Register)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNameConflict reports whether err is a duplicate-declaration error.
// Uses errors.As to handle wrapped errors.
func IsNameConflict(err error) bool {
	var be *BuildError
	return errors.As(err, &be) && be.Code == ErrCodeNameConflict
}

// BindingErrorCode categorizes memory-map validation errors.
type BindingErrorCode string

const (
	// ErrCodeUnknownRegister indicates a binding key that matches no
	// declared register of the originating program.
	ErrCodeUnknownRegister BindingErrorCode = "UNKNOWN_REGISTER"

	// ErrCodeArityMismatch indicates a value list whose length differs from
	// the declared register length.
	ErrCodeArityMismatch BindingErrorCode = "ARITY_MISMATCH"

	// ErrCodeNotBindable indicates an attempt to bind a non-real register.
	ErrCodeNotBindable BindingErrorCode = "NOT_BINDABLE"
)

// BindingError is returned when a memory map does not satisfy the declared
// registers of the program it binds. Raised before any run call is issued.
type BindingError struct {
	Code     BindingErrorCode
	Register string
	Want     int
	Got      int
}

func (e *BindingError) Error() string {
	switch e.Code {
	case ErrCodeArityMismatch:
		return fmt.Sprintf("%s: register %s declared length %d, bound %d values",
			e.Code, e.Register, e.Want, e.Got)
	default:
		return fmt.Sprintf("%s: register %s", e.Code, e.Register)
	}
}

// IsBindingError reports whether err is a memory-map validation error.
func IsBindingError(err error) bool {
	var be *BindingError
	return errors.As(err, &be)
}
