package providers

import "fmt"

// ErrorKind classifies a provider failure.
type ErrorKind string

const (
	ErrorKindNetwork            ErrorKind = "network"
	ErrorKindServiceUnavailable ErrorKind = "service_unavailable"
	ErrorKindAuth               ErrorKind = "auth"
	ErrorKindRateLimited        ErrorKind = "rate_limited"
	ErrorKindInvalidRequest     ErrorKind = "invalid_request"
	ErrorKindNotFound           ErrorKind = "not_found"
	ErrorKindParse              ErrorKind = "parse"
	ErrorKindInternal           ErrorKind = "internal"
	ErrorKindOther              ErrorKind = "other"
)

// ShouldFallback reports whether an error kind permits retrying the same
// request against the next configured provider. Only transient upstream
// conditions qualify; everything else is surfaced to the caller unchanged.
func ShouldFallback(kind ErrorKind) bool {
	switch kind {
	case ErrorKindNetwork, ErrorKindServiceUnavailable, ErrorKindRateLimited:
		return true
	}
	return false
}

// Error is a classified provider failure. Immutable once constructed.
type Error struct {
	Provider string
	Kind     ErrorKind
	Step     string
	Message  string
}

// NewError constructs a classified provider error.
func NewError(provider string, kind ErrorKind, step, message string) *Error {
	return &Error{
		Provider: provider,
		Kind:     kind,
		Step:     step,
		Message:  message,
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s failed (%s): %s", e.Provider, e.Step, e.Kind, e.Message)
}

// Retryable reports whether the failure is transient. It is derived from the
// kind, never stored separately.
func (e *Error) Retryable() bool {
	return ShouldFallback(e.Kind)
}

// ShouldFallback reports whether the composite may advance to the next provider.
func (e *Error) ShouldFallback() bool {
	return ShouldFallback(e.Kind)
}
