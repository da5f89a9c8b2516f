package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error by how the caller should react to it.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation covers unknown tables, columns, operators, sort fields
	// and unresolvable cross-table filters. Never retried.
	KindValidation
	// KindNotFound is returned for unknown session ids.
	KindNotFound
	// KindInvalidOperation is returned for operations that are never allowed,
	// such as deleting the shared session.
	KindInvalidOperation
	// KindConflict is returned when a caller-supplied session id is taken.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindInvalidOperation:
		return "invalid_operation"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return newf(KindValidation, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

func InvalidOperation(format string, args ...any) *Error {
	return newf(KindInvalidOperation, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newf(KindConflict, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

func IsValidation(err error) bool       { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool         { return KindOf(err) == KindNotFound }
func IsInvalidOperation(err error) bool { return KindOf(err) == KindInvalidOperation }
func IsConflict(err error) bool         { return KindOf(err) == KindConflict }

// HTTPStatus maps err to the response status the HTTP layer should use.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindInvalidOperation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
