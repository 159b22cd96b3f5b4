package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorCode classifies HTTP client errors.
type ErrorCode int

const (
	// ErrCodeConnection indicates a connection failure (refused, DNS, TLS, malformed response).
	ErrCodeConnection ErrorCode = iota
	// ErrCodeTimeout indicates a request or connection timeout.
	ErrCodeTimeout
	// ErrCodeCanceled indicates the caller cancelled the exchange.
	ErrCodeCanceled
	// ErrCodeInvalidRequest indicates a request that could not be built or prepared.
	ErrCodeInvalidRequest
	// ErrCodeForbidden indicates the server refused an authenticated request (403).
	ErrCodeForbidden
	// ErrCodeNotFound indicates the resource was not found (404).
	ErrCodeNotFound
	// ErrCodeStatus indicates any other unsuccessful 4xx status.
	ErrCodeStatus
	// ErrCodeServer indicates a server-side error (5xx).
	ErrCodeServer
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeConnection:
		return "connection"
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeCanceled:
		return "canceled"
	case ErrCodeInvalidRequest:
		return "invalid_request"
	case ErrCodeForbidden:
		return "forbidden"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeStatus:
		return "status"
	case ErrCodeServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is a structured HTTP client error. Transport failures carry a zero
// StatusCode.
type Error struct {
	// StatusCode is the HTTP status code (0 for transport-level errors).
	StatusCode int
	// Code classifies the error.
	Code ErrorCode
	// Message describes the error.
	Message string
	// Body is the response body, if one was read.
	Body []byte
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewConnectionError creates a connection error.
func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Message: err.Error(), Err: err}
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: err.Error(), Err: err}
}

// NewCanceledError creates a cancellation error.
func NewCanceledError(err error) *Error {
	return &Error{Code: ErrCodeCanceled, Message: err.Error(), Err: err}
}

// NewInvalidRequestError creates an invalid request error.
func NewInvalidRequestError(msg string, err error) *Error {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	return &Error{Code: ErrCodeInvalidRequest, Message: msg, Err: err}
}

// classifyTransportError maps a transport failure to an *Error.
// Cancellation wins over everything else so a caller that gave up never
// sees a connection error.
func classifyTransportError(ctx context.Context, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return NewCanceledError(err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewTimeoutError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(err)
	}
	return NewConnectionError(err)
}

// ClassifyStatusCode converts an unsuccessful status into a typed error.
// It returns nil for 1xx, 2xx and 3xx. 401 and 407 never reach callers as
// status errors; the client reports them as authentication errors.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	code := ErrCodeStatus
	switch {
	case statusCode < 400:
		return nil
	case statusCode == http.StatusForbidden:
		code = ErrCodeForbidden
	case statusCode == http.StatusNotFound:
		code = ErrCodeNotFound
	case statusCode >= 500:
		code = ErrCodeServer
	}
	return &Error{
		StatusCode: statusCode,
		Code:       code,
		Message:    http.StatusText(statusCode),
		Body:       body,
	}
}

// IsConnection checks if an error is a connection error.
func IsConnection(err error) bool { return hasCode(err, ErrCodeConnection) }

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool { return hasCode(err, ErrCodeTimeout) }

// IsCanceled checks if an error is a cancellation error.
func IsCanceled(err error) bool { return hasCode(err, ErrCodeCanceled) }

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsTransport reports whether err is a failure below the HTTP semantic layer.
func IsTransport(err error) bool {
	return IsConnection(err) || IsTimeout(err) || IsCanceled(err)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
