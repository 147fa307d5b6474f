// Package perrors provides the classified error taxonomy shared by every
// Palisade component: a small Kind enum plus a stable machine-readable
// Code, so callers can branch on failure category without string matching.
package perrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers deciding whether to retry, surface
// to a user, or treat as a fatal configuration problem.
type Kind string

const (
	// KindInvalidArgument is a caller-side programming error: a negative
	// parallelism hint, a nil request.
	KindInvalidArgument Kind = "invalid_argument"

	// KindNotFound covers NoSuchUser, ResourceNotFound, and PolicyMissing.
	// PolicyMissing is usually non-fatal: the resource is filtered out.
	KindNotFound Kind = "not_found"

	// KindUnavailable covers CacheUnavailable and ProviderUnavailable.
	// Transient; the caller may retry.
	KindUnavailable Kind = "unavailable"

	// KindTimeout means an operation exceeded its deployment-configured
	// deadline.
	KindTimeout Kind = "timeout"

	// KindConfig covers NoConfig and MissingCoordinator: fatal at
	// startup or plan time.
	KindConfig Kind = "config"

	// KindIntegrity covers PolicyMalformed, EmptySplit, and
	// SplitTypeMismatch: surfaced directly to the caller.
	KindIntegrity Kind = "integrity"

	// KindCancelled means the operation observed cooperative cancellation.
	KindCancelled Kind = "cancelled"
)

// Error is a classified error with enough context to log and to retry on.
type Error struct {
	Kind      Kind
	Code      string
	Message   string
	Resource  string
	Operation string
	Err       error
}

func (e *Error) Error() string {
	switch {
	case e.Resource != "" && e.Operation != "":
		return fmt.Sprintf("[%s] %s (resource=%s, operation=%s)%s", e.Kind, e.Message, e.Resource, e.Operation, e.suffix())
	case e.Resource != "":
		return fmt.Sprintf("[%s] %s (resource=%s)%s", e.Kind, e.Message, e.Resource, e.suffix())
	default:
		return fmt.Sprintf("[%s] %s%s", e.Kind, e.Message, e.suffix())
	}
}

func (e *Error) suffix() string {
	if e.Err == nil {
		return ""
	}
	return ": " + e.Err.Error()
}

// Unwrap exposes the underlying error for errors.Is/errors.As chains.
func (e *Error) Unwrap() error { return e.Err }

// Is treats two *Error values as equal when they share a Kind and Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// WithResource attaches the resource identifier that caused the error.
func (e *Error) WithResource(id string) *Error { e.Resource = id; return e }

// WithOperation attaches the operation being performed when it occurred.
func (e *Error) WithOperation(op string) *Error { e.Operation = op; return e }

// WithCode attaches a stable wire error code.
func (e *Error) WithCode(code string) *Error { e.Code = code; return e }

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NewInvalidArgument builds a KindInvalidArgument error.
func NewInvalidArgument(message string, err error) *Error { return newError(KindInvalidArgument, message, err) }

// NewNotFound builds a KindNotFound error.
func NewNotFound(message string, err error) *Error { return newError(KindNotFound, message, err) }

// NewUnavailable builds a KindUnavailable error.
func NewUnavailable(message string, err error) *Error { return newError(KindUnavailable, message, err) }

// NewTimeout builds a KindTimeout error.
func NewTimeout(message string, err error) *Error { return newError(KindTimeout, message, err) }

// NewConfig builds a KindConfig error.
func NewConfig(message string, err error) *Error { return newError(KindConfig, message, err) }

// NewIntegrity builds a KindIntegrity error.
func NewIntegrity(message string, err error) *Error { return newError(KindIntegrity, message, err) }

// NewCancelled builds a KindCancelled error.
func NewCancelled(message string, err error) *Error { return newError(KindCancelled, message, err) }

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsRetryable reports whether err is classified as safe to retry:
// Unavailable or Timeout.
func IsRetryable(err error) bool {
	return Is(err, KindUnavailable) || Is(err, KindTimeout)
}

// Stable wire error codes: each error kind maps to a stable code string
// callers can match on in a response envelope without parsing messages.
const (
	CodeNullRequest         = "NULL_REQUEST"
	CodeInvalidHint         = "INVALID_HINT"
	CodeNoSuchUser          = "NO_SUCH_USER"
	CodeResourceNotFound    = "RESOURCE_NOT_FOUND"
	CodePolicyMissing       = "POLICY_MISSING"
	CodeCacheUnavailable    = "CACHE_UNAVAILABLE"
	CodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	CodeTimeout             = "TIMEOUT"
	CodeNoConfig            = "NO_CONFIG"
	CodeMissingCoordinator  = "MISSING_COORDINATOR"
	CodeNoRequests          = "NO_REQUESTS"
	CodePolicyMalformed     = "POLICY_MALFORMED"
	CodeEmptySplit          = "EMPTY_SPLIT"
	CodeSplitTypeMismatch   = "SPLIT_TYPE_MISMATCH"
	CodeCancelled           = "CANCELLED"
)
