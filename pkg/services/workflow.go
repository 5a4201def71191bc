package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/composer/pkg/connections"
	"github.com/dukex/composer/pkg/eventbus"
	"github.com/dukex/composer/pkg/events"
	"github.com/dukex/composer/pkg/generator"
	"github.com/dukex/composer/pkg/models"
	"github.com/dukex/composer/pkg/otelhelper"
	"github.com/dukex/composer/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrWorkflowNotFound is returned when a workflow is not found.
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound
)

type Workflow struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	generator   generator.Generator
	validate    *validator.Validate
	tracer      trace.Tracer
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

type Option func(*Workflow)

// WithPublisher publishes a lifecycle event after every change.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(w *Workflow) {
		w.publisher = publisher
	}
}

func WithGenerator(g generator.Generator) Option {
	return func(w *Workflow) {
		w.generator = g
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

// WithIDGenerator replaces the UUID source for new workflow identifiers.
func WithIDGenerator(newID func() string) Option {
	return func(w *Workflow) {
		w.newID = newID
	}
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence, opts ...Option) *Workflow {
	w := &Workflow{
		persistence: persistence,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		tracer:      otelhelper.Tracer("composer.services"),
		logger:      slog.Default(),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns every stored workflow.
func (w *Workflow) List(ctx context.Context) ([]*models.StoredWorkflow, error) {
	workflows, err := w.persistence.Workflows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.StoredWorkflow, error) {
	workflow, err := w.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if workflow == nil {
		return nil, ErrWorkflowNotFound
	}

	return workflow, nil
}

// Create validates and stores a new workflow under a fresh identifier.
func (w *Workflow) Create(ctx context.Context, workflow models.Workflow) (*models.StoredWorkflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.create",
		attribute.String(otelhelper.WorkflowNameKey, workflow.Name),
		attribute.Int(otelhelper.NodeCountKey, len(workflow.Nodes)),
	)
	defer span.End()

	if err := w.check("Create", workflow); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	now := w.now()
	stored := &models.StoredWorkflow{
		ID:        w.newID(),
		Workflow:  normalize(workflow),
		CreatedAt: now,
		UpdatedAt: now,
	}

	span.SetAttributes(attribute.String(otelhelper.WorkflowIDKey, stored.ID))

	if err := w.persistence.SaveWorkflow(ctx, stored); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	w.logger.InfoContext(ctx, "Workflow created", "workflow_id", stored.ID, "nodes", len(stored.Nodes))

	w.publish(ctx, stored.ID, events.WorkflowCreated{
		BaseEvent: events.NewBaseEvent(events.WorkflowCreatedEvent, stored.ID),
		Name:      stored.Name,
		NodeCount: len(stored.Nodes),
	})

	return stored, nil
}

// Update replaces the content of an existing workflow.
func (w *Workflow) Update(ctx context.Context, workflowID string, workflow models.Workflow) (*models.StoredWorkflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.update",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.Int(otelhelper.NodeCountKey, len(workflow.Nodes)),
	)
	defer span.End()

	if err := w.check("Update", workflow); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	existing, err := w.FetchByID(ctx, workflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	stored := &models.StoredWorkflow{
		ID:        workflowID,
		Workflow:  normalize(workflow),
		CreatedAt: existing.CreatedAt,
		UpdatedAt: w.now(),
	}

	if err := w.persistence.SaveWorkflow(ctx, stored); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	w.logger.InfoContext(ctx, "Workflow updated", "workflow_id", workflowID, "nodes", len(stored.Nodes))

	w.publish(ctx, workflowID, events.WorkflowUpdated{
		BaseEvent: events.NewBaseEvent(events.WorkflowUpdatedEvent, workflowID),
		Name:      stored.Name,
		NodeCount: len(stored.Nodes),
	})

	return stored, nil
}

// Delete removes a workflow by its ID.
func (w *Workflow) Delete(ctx context.Context, workflowID string) error {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.delete",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
	)
	defer span.End()

	if err := w.persistence.DeleteWorkflow(ctx, workflowID); err != nil {
		otelhelper.SetError(span, err)

		if persistence.IsWorkflowNotFound(err) {
			return err
		}

		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	w.logger.InfoContext(ctx, "Workflow deleted", "workflow_id", workflowID)

	w.publish(ctx, workflowID, events.WorkflowDeleted{
		BaseEvent: events.NewBaseEvent(events.WorkflowDeletedEvent, workflowID),
	})

	return nil
}

// Generate drafts a workflow from description without storing it.
func (w *Workflow) Generate(ctx context.Context, description string) (*models.Workflow, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}

	if w.generator == nil {
		return nil, ErrGeneratorUnavailable
	}

	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.generate",
		attribute.String(otelhelper.GeneratorKey, w.generator.Name()),
	)
	defer span.End()

	workflow, err := w.generator.Generate(ctx, description)
	if err != nil {
		otelhelper.SetError(span, err)
		w.logger.ErrorContext(ctx, "Workflow generation failed", "generator", w.generator.Name(), "error", err)

		if errors.Is(err, generator.ErrEmptyDescription) {
			return nil, ErrDescriptionRequired
		}

		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	span.SetAttributes(attribute.Int(otelhelper.NodeCountKey, len(workflow.Nodes)))

	w.publish(ctx, "", events.WorkflowGenerated{
		BaseEvent:   events.NewBaseEvent(events.WorkflowGeneratedEvent, ""),
		Description: description,
		Generator:   w.generator.Name(),
		Name:        workflow.Name,
		NodeCount:   len(workflow.Nodes),
	})

	return workflow, nil
}

// check enforces the structural rules of a stored workflow: a name, node
// identity fields, unique node ids and connections between existing nodes.
func (w *Workflow) check(op string, workflow models.Workflow) error {
	if strings.TrimSpace(workflow.Name) == "" {
		return NewValidationError(op, "NAME_REQUIRED", "name is required", ErrWorkflowNameRequired)
	}

	if err := w.validate.Struct(workflow); err != nil {
		return NewValidationError(op, "INVALID_WORKFLOW", err.Error(), ErrInvalidRequest)
	}

	ids := make(map[string]struct{}, len(workflow.Nodes))

	for _, node := range workflow.Nodes {
		if _, dup := ids[node.ID]; dup {
			return NewValidationError(op, "DUPLICATE_NODE_ID",
				fmt.Sprintf("node id %q is used more than once", node.ID), ErrDuplicateNodeID)
		}

		ids[node.ID] = struct{}{}
	}

	for _, conn := range workflow.Connections {
		_, source := ids[conn.Source]
		_, target := ids[conn.Target]

		if !source || !target {
			return NewValidationError(op, "INVALID_CONNECTION",
				fmt.Sprintf("connection %s -> %s references an unknown node", conn.Source, conn.Target),
				ErrInvalidConnectionData)
		}
	}

	if !connections.Linear(workflow.Nodes, workflow.Connections) {
		return NewValidationError(op, "NON_LINEAR_WORKFLOW",
			"connections must link each node to the next one in order", ErrNonLinearWorkflow)
	}

	return nil
}

func normalize(workflow models.Workflow) models.Workflow {
	if workflow.Nodes == nil {
		workflow.Nodes = []models.Node{}
	}

	if workflow.Connections == nil {
		workflow.Connections = []models.Connection{}
	}

	for i := range workflow.Nodes {
		if workflow.Nodes[i].Parameters == nil {
			workflow.Nodes[i].Parameters = map[string]any{}
		}
	}

	return workflow
}

func (w *Workflow) publish(ctx context.Context, key string, event eventbus.Event) {
	if w.publisher == nil {
		return
	}

	if err := w.publisher.Publish(ctx, key, event); err != nil {
		w.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "workflow_id", key, "error", err)
	}
}
