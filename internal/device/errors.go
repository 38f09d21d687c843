package device

import (
	"errors"
	"fmt"
)

// ResolveErrorCode categorizes target resolution failures.
type ResolveErrorCode string

const (
	// ErrCodeTargetNotFound indicates the identifier matches no catalog
	// entry.
	ErrCodeTargetNotFound ResolveErrorCode = "TARGET_NOT_FOUND"

	// ErrCodeTargetUnavailable indicates the target exists but is not
	// currently schedulable by the caller.
	ErrCodeTargetUnavailable ResolveErrorCode = "TARGET_UNAVAILABLE"

	// ErrCodeNoDriver indicates no backend is registered for the target's
	// driver.
	ErrCodeNoDriver ResolveErrorCode = "NO_DRIVER"
)

// ResolveError is returned by Resolver.Resolve.
type ResolveError struct {
	Code   ResolveErrorCode
	Target string
	Status Status
	Driver string
}

func (e *ResolveError) Error() string {
	switch e.Code {
	case ErrCodeTargetUnavailable:
		return fmt.Sprintf("%s: target %s is %s", e.Code, e.Target, e.Status)
	case ErrCodeNoDriver:
		return fmt.Sprintf("%s: target %s requires driver %q", e.Code, e.Target, e.Driver)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Target)
	}
}

// IsUnavailable reports whether err is an availability failure (target
// offline or reserved). Uses errors.As to handle wrapped errors.
func IsUnavailable(err error) bool {
	var re *ResolveError
	return errors.As(err, &re) && re.Code == ErrCodeTargetUnavailable
}

// IsNotFound reports whether err is an unknown-target failure.
func IsNotFound(err error) bool {
	var re *ResolveError
	return errors.As(err, &re) && re.Code == ErrCodeTargetNotFound
}
