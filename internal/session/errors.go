package session

import "errors"

// Sentinel errors for session operations.
// These errors are part of the store's public API and should be checked using errors.Is().
var (
	// ErrSessionNotFound indicates the requested session file does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidSessionID indicates the session ID contains path separators
	// or other characters unsafe for a file name.
	ErrInvalidSessionID = errors.New("invalid session ID")

	// ErrCorruptSession indicates the session file exists but cannot be decoded.
	ErrCorruptSession = errors.New("corrupt session file")
)

// isNotFound reports whether err means the session has no usable backing
// record. A corrupt file is treated the same as a missing one: callers see
// "no such session" and may recover, never a fatal decode error.
func isNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrCorruptSession)
}
