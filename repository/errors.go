package repository

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is.
var (
	// ErrCredentialsDeclined means credentials were required but not supplied.
	ErrCredentialsDeclined = errors.New("repository: authentication required but credentials not supplied")
	// ErrMisconfigured means a credential did not match its slot's shape.
	ErrMisconfigured = errors.New("repository: credentials do not match authentication type")
	// ErrUnknownKind means a persisted credential has an unsupported kind.
	ErrUnknownKind = errors.New("repository: unknown credentials kind")
	// ErrNoRequester means the location cannot request credentials interactively.
	ErrNoRequester = errors.New("repository: no credentials requester configured")
)

// AuthenticationRequest names the slot that must be renegotiated for a location.
type AuthenticationRequest struct {
	Location *Location
	Type     Type
	// Reason is shown to the user, typically the server's status text.
	Reason string
}

// AuthenticationError reports that the server rejected a request for
// authentication reasons. Callers obtain new credentials for Request.Type
// and retry.
type AuthenticationError struct {
	Request    AuthenticationRequest
	StatusCode int
	StatusText string
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	loc := ""
	if e.Request.Location != nil {
		loc = e.Request.Location.URL()
	}
	return fmt.Sprintf("repository: authentication failed for %s (HTTP %d %s): renegotiate %s",
		loc, e.StatusCode, e.StatusText, e.Request.Type)
}

// NewAuthenticationError creates an AuthenticationError for the given slot.
func NewAuthenticationError(loc *Location, typ Type, statusCode int, statusText string) *AuthenticationError {
	return &AuthenticationError{
		Request:    AuthenticationRequest{Location: loc, Type: typ, Reason: statusText},
		StatusCode: statusCode,
		StatusText: statusText,
	}
}

// IsAuthenticationError checks if an error is an authentication error.
func IsAuthenticationError(err error) bool {
	var e *AuthenticationError
	return errors.As(err, &e)
}

// AuthenticationTypeOf returns the slot named by an authentication error.
func AuthenticationTypeOf(err error) (Type, bool) {
	var e *AuthenticationError
	if !errors.As(err, &e) {
		return nil, false
	}
	return e.Request.Type, true
}

// CredentialsDeclinedError reports that the interactive collaborator
// returned no credentials for a required slot.
type CredentialsDeclinedError struct {
	Request AuthenticationRequest
}

// Error implements the error interface.
func (e *CredentialsDeclinedError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCredentialsDeclined, e.Request.Type)
}

// Is matches ErrCredentialsDeclined.
func (e *CredentialsDeclinedError) Is(target error) bool {
	return target == ErrCredentialsDeclined
}

// MisconfigurationError reports a credential whose shape does not match the
// slot it was stored under. It is a programming error and must not be retried.
type MisconfigurationError struct {
	Type Type
	Got  Credentials
}

// Error implements the error interface.
func (e *MisconfigurationError) Error() string {
	got := Kind("nil")
	if e.Got != nil {
		got = e.Got.Kind()
	}
	return fmt.Sprintf("%v: %s expects %s, got %s", ErrMisconfigured, e.Type, e.Type.Kind(), got)
}

// Is matches ErrMisconfigured.
func (e *MisconfigurationError) Is(target error) bool {
	return target == ErrMisconfigured
}
