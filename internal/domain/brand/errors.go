package brand

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind is the stable failure classification surfaced to API callers.
type ErrorKind string

const (
	KindValidation        ErrorKind = "ValidationError"
	KindInvalidURL        ErrorKind = "InvalidURLError"
	KindContentExtraction ErrorKind = "ContentExtractionError"
	KindSynthesis         ErrorKind = "SynthesisError"
	KindNotFound          ErrorKind = "NotFoundError"
	KindDuplicateCategory ErrorKind = "DuplicateCategoryError"
	KindIndexOutOfRange   ErrorKind = "IndexOutOfRangeError"
	KindPersistence       ErrorKind = "PersistenceError"
	KindSessionState      ErrorKind = "SessionStateError"
	KindInternal          ErrorKind = "InternalError"
)

// Error is the canonical onboarding/curation error. Message is safe to show
// callers; Cause may carry transport detail and is only meant for logs.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Kind)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Kind)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Kind)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(kind ErrorKind, op, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

func Validation(op, message string) *Error {
	return NewError(KindValidation, op, message, nil)
}

func InvalidURL(op, raw string, cause error) *Error {
	return NewError(KindInvalidURL, op, fmt.Sprintf("invalid URL format: %q", raw), cause)
}

func ContentExtraction(op, message string, cause error) *Error {
	return NewError(KindContentExtraction, op, message, cause)
}

func Synthesis(op, message string, cause error) *Error {
	return NewError(KindSynthesis, op, message, cause)
}

func NotFound(op, message string) *Error {
	return NewError(KindNotFound, op, message, nil)
}

func DuplicateCategory(op, name string) *Error {
	return NewError(KindDuplicateCategory, op, fmt.Sprintf("category %q already exists", name), nil)
}

func IndexOutOfRange(op, what string, index, length int) *Error {
	return NewError(KindIndexOutOfRange, op, fmt.Sprintf("%s index %d out of range [0,%d)", what, index, length), nil)
}

// Persistence never repeats the store error text; it stays reachable through Unwrap.
func Persistence(op string, cause error) *Error {
	return NewError(KindPersistence, op, "record store operation failed", cause)
}

func SessionState(op, message string) *Error {
	return NewError(KindSessionState, op, message, nil)
}

// IsKind checks whether err (or a wrapped err) carries kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// KindOf extracts the error kind, or "" when err is not a *brand.Error.
func KindOf(err error) ErrorKind {
	var be *Error
	if !errors.As(err, &be) {
		return ""
	}
	return be.Kind
}

// HTTPStatus maps a kind to the status code used by the API.
func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case KindValidation, KindInvalidURL, KindDuplicateCategory, KindIndexOutOfRange:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindSessionState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
