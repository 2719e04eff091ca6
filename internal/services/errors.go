package services

import (
	"errors"
	"strings"
)

// ErrAuthInProgress rejects a sign-in or sign-up while another is pending.
var ErrAuthInProgress = errors.New("another sign-in is already in progress")

// ValidationError is bad user input, raised before any I/O. Rules lists every
// unmet rule in user-facing wording.
type ValidationError struct {
	Rules []string
}

func (e *ValidationError) Error() string { return strings.Join(e.Rules, "; ") }

func invalid(rules ...string) *ValidationError { return &ValidationError{Rules: rules} }

type AuthKind int

const (
	InvalidCredentials AuthKind = iota + 1
	ServiceUnavailable
	DuplicateUser
	Forbidden
	NotSignedIn
)

func (k AuthKind) String() string {
	switch k {
	case InvalidCredentials:
		return "invalid_credentials"
	case ServiceUnavailable:
		return "service_unavailable"
	case DuplicateUser:
		return "duplicate_user"
	case Forbidden:
		return "forbidden"
	case NotSignedIn:
		return "not_signed_in"
	default:
		return "unknown"
	}
}

// AuthError is an authentication or authorisation failure. Err keeps the
// underlying cause for logs; Error() is safe to show to users.
type AuthError struct {
	Kind AuthKind
	Err  error
}

func (e *AuthError) Error() string {
	switch e.Kind {
	case InvalidCredentials:
		return "Invalid email or password"
	case ServiceUnavailable:
		return "Service unavailable, please try again"
	case DuplicateUser:
		return "An account with this email already exists"
	case Forbidden:
		return "You do not have access to this action"
	case NotSignedIn:
		return "Please sign in first"
	default:
		return "Authentication failed"
	}
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches any AuthError of the same kind, so the sentinels below work
// with errors.Is.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidCredentials = &AuthError{Kind: InvalidCredentials}
	ErrServiceUnavailable = &AuthError{Kind: ServiceUnavailable}
	ErrDuplicateUser      = &AuthError{Kind: DuplicateUser}
	ErrForbidden          = &AuthError{Kind: Forbidden}
	ErrNotSignedIn        = &AuthError{Kind: NotSignedIn}
)

func authErr(kind AuthKind, cause error) *AuthError { return &AuthError{Kind: kind, Err: cause} }
