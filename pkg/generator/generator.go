// Package generator drafts workflows from natural-language descriptions.
package generator

import (
	"context"
	"errors"

	"github.com/dukex/composer/pkg/models"
)

var (
	// ErrEmptyDescription is returned for a blank description.
	ErrEmptyDescription = errors.New("workflow description is required")

	// ErrInvalidOutput is returned when a model answer cannot be turned into a
	// workflow.
	ErrInvalidOutput = errors.New("generated workflow is invalid")
)

// Generator turns a description into a workflow whose connections follow node
// order.
type Generator interface {
	Name() string
	Generate(ctx context.Context, description string) (*models.Workflow, error)
}
