// Package errors defines custom error types for the pilotproxy library.
package errors

import "fmt"

// DomainError represents errors in the trust-establishment logic.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code. This lets
// callers match wrapped errors against the sentinel values below with
// errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// Common domain errors. Each code identifies one failure class of the
// authorization pipeline so callers can log precisely.
var (
	ErrMissingProxyPath = &DomainError{
		Code:    "CONFIG_MISSING_PROXY_PATH",
		Message: "pilot proxy path is not configured",
	}

	ErrInvalidLockPolicy = &DomainError{
		Code:    "CONFIG_INVALID_LOCK_POLICY",
		Message: "unrecognized file lock policy",
	}

	ErrProxyIO = &DomainError{
		Code:    "PROXY_IO",
		Message: "I/O failure while reading pilot proxy",
	}

	ErrProxyLock = &DomainError{
		Code:    "PROXY_LOCK",
		Message: "failed to lock pilot proxy file",
	}

	ErrProxyPermission = &DomainError{
		Code:    "PROXY_PERMISSION",
		Message: "unsafe ownership or permissions on pilot proxy file",
	}

	ErrProxyPrivilege = &DomainError{
		Code:    "PROXY_PRIVILEGE",
		Message: "privilege transition failed",
	}

	ErrProxyRetryExhausted = &DomainError{
		Code:    "PROXY_RETRY_EXHAUSTED",
		Message: "pilot proxy file kept changing during read",
	}

	ErrChainParse = &DomainError{
		Code:    "CHAIN_PARSE",
		Message: "cannot parse PEM text into a certificate chain",
	}

	ErrTrustDenied = &DomainError{
		Code:    "TRUST_DENIED",
		Message: "payload proxy is not trusted",
	}
)

// NewDomainError creates a new domain error wrapping err with the class of
// base.
func NewDomainError(base *DomainError, err error) error {
	return &DomainError{
		Code:    base.Code,
		Message: base.Message,
		Err:     err,
	}
}

// ValidationError represents input validation errors.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}
