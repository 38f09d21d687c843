package native

import (
	"errors"
	"fmt"
)

// CompileError represents a failure to lower a program onto a target's
// native instruction set. Compilation failures are fatal and unretried.
type CompileError struct {
	Target  string
	Gate    string
	Message string
}

func (e *CompileError) Error() string {
	if e.Gate != "" {
		return fmt.Sprintf("compile for %s: gate %s: %s", e.Target, e.Gate, e.Message)
	}
	return fmt.Sprintf("compile for %s: %s", e.Target, e.Message)
}

// IsCompileError reports whether err is a native compilation error.
// Uses errors.As to handle wrapped errors.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}
