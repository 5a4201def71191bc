package document

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange is returned when a node index does not address a node.
	ErrIndexOutOfRange = errors.New("node index out of range")

	// ErrRemoteIDBound is returned when a document already bound to a backend
	// identifier is asked to bind a different one.
	ErrRemoteIDBound = errors.New("document already bound to a different remote id")

	// ErrEmptyRemoteID is returned when binding an empty backend identifier.
	ErrEmptyRemoteID = errors.New("remote id cannot be empty")
)

// IndexError carries the offending index and the document size.
type IndexError struct {
	Op    string
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: %v: index %d, %d nodes", e.Op, ErrIndexOutOfRange, e.Index, e.Len)
}

func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}

// IsIndexOutOfRange reports whether err is an out-of-range node index.
func IsIndexOutOfRange(err error) bool {
	return errors.Is(err, ErrIndexOutOfRange)
}
