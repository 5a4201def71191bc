package nodes

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// IDPrefix is prepended to every generated node identifier.
const IDPrefix = "node_"

// IDGenerator produces node identifiers. Implementations must never return the
// same identifier twice within a process.
type IDGenerator interface {
	NewID() string
}

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func() string

func (f IDGeneratorFunc) NewID() string {
	return f()
}

// ULIDGenerator issues time-ordered identifiers. ulid.Make uses process-wide
// monotonic entropy, so two identifiers minted in the same millisecond still differ.
type ULIDGenerator struct{}

func (ULIDGenerator) NewID() string {
	return IDPrefix + strings.ToLower(ulid.Make().String())
}
