package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error by how the caller is expected to react to it.
//
//go:generate go tool enumer -type=Kind -trimprefix=Kind -transform=snake
type Kind int

const (
	// KindUnknown is the zero value for errors that carry no classification.
	KindUnknown Kind = iota
	// KindValidation marks malformed input the caller can fix. No writes happened.
	KindValidation
	// KindAuthorization marks an actor that may not perform the operation.
	KindAuthorization
	// KindNotFound marks a referenced record that does not exist.
	KindNotFound
	// KindConflict marks an operation that clashes with current state.
	KindConflict
	// KindPaymentProcessing marks a failed earning write. Nothing was committed
	// and the caller may retry.
	KindPaymentProcessing
	// KindPayProtected marks a failed judgment write after the judge's earning
	// was recorded. The earning is kept and flagged for review.
	KindPayProtected
	// KindDegraded marks a best-effort step that failed after the primary write
	// succeeded. It is logged, never returned to callers.
	KindDegraded
)

// Sentinels for errors.Is matching against a Kind.
var (
	ErrValidation        = errors.New("validation error")
	ErrAuthorization     = errors.New("authorization error")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrPaymentProcessing = errors.New("payment processing error")
	ErrPayProtected      = errors.New("submission failed, earnings protected")
	ErrDegraded          = errors.New("best-effort degradation")
)

// Retryable reports whether the caller should retry the same request.
func (k Kind) Retryable() bool {
	return k == KindPaymentProcessing
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindAuthorization:
		return ErrAuthorization
	case KindNotFound:
		return ErrNotFound
	case KindConflict:
		return ErrConflict
	case KindPaymentProcessing:
		return ErrPaymentProcessing
	case KindPayProtected:
		return ErrPayProtected
	case KindDegraded:
		return ErrDegraded
	case KindUnknown:
		return nil
	default:
		return nil
	}
}

// Error is a classified domain error.
type Error struct {
	Kind    Kind
	Op      string // Operation that failed, e.g. "settlement.SubmitJudgment"
	Message string // Caller-facing message
	Err     error  // Underlying cause, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// New creates a classified error without an underlying cause.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap creates a classified error around an underlying cause.
func Wrap(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// Validation is shorthand for a KindValidation error.
func Validation(op, message string) *Error {
	return New(KindValidation, op, message)
}

// Authorization is shorthand for a KindAuthorization error.
func Authorization(op, message string) *Error {
	return New(KindAuthorization, op, message)
}

// NotFound is shorthand for a KindNotFound error.
func NotFound(op, message string) *Error {
	return New(KindNotFound, op, message)
}

// Conflict is shorthand for a KindConflict error.
func Conflict(op, message string) *Error {
	return New(KindConflict, op, message)
}

// KindOf extracts the kind of err, or KindUnknown if err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// MessageOf returns the caller-facing message of a classified error.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
