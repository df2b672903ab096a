package vectorstore

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidModel reports a record type or definition that cannot back a
	// collection.
	ErrInvalidModel = errors.New("invalid record model")

	// ErrUnknownField reports a reference to a storage name the definition
	// does not declare.
	ErrUnknownField = errors.New("unknown field")

	// ErrUnsupportedDistance reports a distance function the adapter cannot
	// serve.
	ErrUnsupportedDistance = errors.New("unsupported distance function")

	// ErrUnsupportedIndex reports an index kind the adapter cannot serve.
	ErrUnsupportedIndex = errors.New("unsupported index kind")

	// ErrInvalidFilter reports a filter clause that fails validation against
	// the definition.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrInvalidSearch reports search options that fail validation.
	ErrInvalidSearch = errors.New("invalid search options")
)

// OpError wraps an adapter failure with the operation and collection it
// happened in.
type OpError struct {
	Op         string
	Collection string
	Err        error
}

func (e *OpError) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("vectorstore: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("vectorstore: %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }
