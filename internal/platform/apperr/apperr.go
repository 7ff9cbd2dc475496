package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a request failure. Every error a service returns is either
// one of these kinds or a genuine store fault, which handlers surface as a
// generic server error.
type Kind int

const (
	// Validation marks malformed or missing input. User-correctable.
	Validation Kind = iota
	// Conflict marks a duplicate resource, e.g. an already registered email.
	Conflict
	// Authentication marks bad credentials. The message is uniform so the
	// caller cannot tell a missing account from a wrong password.
	Authentication
	// AuthenticationRequired marks a protected operation with no identity.
	AuthenticationRequired
	// Authorization marks an identity with insufficient rights.
	Authorization
	// NotFound marks an unresolvable resource id.
	NotFound
)

// Error is a classified request failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err and true when err is a classified failure.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Is reports whether err is a classified failure of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Status maps a failure to its HTTP status code. Unclassified errors are
// store faults and map to 500.
func Status(err error) int {
	k, ok := KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch k {
	case Validation:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case Authentication, AuthenticationRequired:
		return http.StatusUnauthorized
	case Authorization:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
