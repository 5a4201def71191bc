package nodes

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidParameters is returned when node parameters do not satisfy the type's schema.
var ErrInvalidParameters = errors.New("invalid node parameters")

// ParameterError lists every schema violation found for a node type.
type ParameterError struct {
	Type    string
	Details []string
}

func (e *ParameterError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%v for %s", ErrInvalidParameters, e.Type)
	}

	return fmt.Sprintf("%v for %s: %s", ErrInvalidParameters, e.Type, strings.Join(e.Details, "; "))
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameters
}

// IsInvalidParameters reports whether err is a parameter validation failure.
func IsInvalidParameters(err error) bool {
	return errors.Is(err, ErrInvalidParameters)
}
