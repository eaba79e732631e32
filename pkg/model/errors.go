package model

import (
	"errors"
	"strings"
)

var (
	// ErrURINotConfigured is returned when the storage connection string is missing
	ErrURINotConfigured = errors.New("storage uri is not configured")
	// ErrInvalidDocument is returned when a stored document does not match the reading shape
	ErrInvalidDocument = errors.New("stored document has invalid shape")
)

// staleMarkers are substrings of driver errors that indicate the
// connection backing an operation has been invalidated. The driver does
// not raise a single typed error for this class, so it is classified by
// message.
var staleMarkers = []string{
	"client is disconnected",
	"socket was unexpectedly closed",
	"connection reset by peer",
	"connection() error",
	"server selection error",
}

// IsStaleConnection returns true if the error indicates the underlying
// connection is no longer usable and a reconnect is worth attempting.
// It checks wrapped errors by message (e.g., from the MongoDB driver).
func IsStaleConnection(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range staleMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
