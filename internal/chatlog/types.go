package chatlog

import "errors"

var (
	// ErrUnknownSender is returned when a subject operation names a sender
	// that never appeared in the parsed export.
	ErrUnknownSender = errors.New("unknown sender")
	// ErrEmptyState is returned when an operation needs at least one entry.
	ErrEmptyState = errors.New("no chat entries")
	// ErrInvalidEncoding is returned for exports that are not valid UTF-8.
	ErrInvalidEncoding = errors.New("invalid utf-8")
)

// Entry is one extracted (sender, message) pair.
type Entry struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}
