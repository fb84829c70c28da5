package relay

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request failed validation.
	ErrValidation = errors.New("validation error")

	// ErrCancelled indicates the caller cancelled the stream. It is never
	// wrapped in a ProtocolError so callers can tell a user-initiated stop
	// from a provider failure.
	ErrCancelled = errors.New("stream cancelled")

	// ErrTimeout indicates the outbound request exceeded its deadline.
	ErrTimeout = errors.New("stream timeout")

	// ErrNotSettled indicates a result was requested before the session
	// settled.
	ErrNotSettled = errors.New("session not settled")
)

// ProtocolError is a session-fatal failure: a connection error, a non-2xx
// response, a provider error event or a timeout.
type ProtocolError struct {
	Provider   string
	StatusCode int    // HTTP status, 0 when the failure happened after the handshake
	Message    string // provider-supplied message when available
	Cause      error
}

func (e *ProtocolError) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if msg == "" && e.StatusCode != 0 {
		msg = http.StatusText(e.StatusCode)
	}
	if msg == "" {
		msg = "protocol error"
	}
	prefix := "relay"
	if e.Provider != "" {
		prefix = e.Provider
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d: %s", prefix, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s", prefix, msg)
}

func (e *ProtocolError) Unwrap() error { return e.Cause }

// IsCancelled reports whether err is the result of a caller cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsTimeout reports whether err is the result of the request deadline
// expiring.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
