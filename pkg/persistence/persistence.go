// Package persistence provides the storage abstraction for saved workflows.
package persistence

import (
	"context"

	"github.com/dukex/composer/pkg/models"
)

// Persistence stores workflows by identifier. WorkflowByID and DeleteWorkflow
// return ErrWorkflowNotFound for unknown identifiers.
type Persistence interface {
	Workflows(ctx context.Context) ([]*models.StoredWorkflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.StoredWorkflow) error
	WorkflowByID(ctx context.Context, id string) (*models.StoredWorkflow, error)
	DeleteWorkflow(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
