package uuidx

import "github.com/google/uuid"

// New returns a fresh v7 UUID. V7 identifiers sort by creation time, which
// keeps run and turn IDs naturally ordered in logs and event streams.
// It panics when the random source fails.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString returns a fresh v7 UUID rendered as a string.
func NewString() string {
	return New().String()
}
