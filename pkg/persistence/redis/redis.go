// Package redis provides Redis persistence for workflows. All workflows live in
// one hash keyed by workflow identifier.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dukex/composer/pkg/models"
	"github.com/dukex/composer/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultKey is the hash holding every workflow.
const DefaultKey = "composer:workflows"

// Persistence implements the persistence layer on a Redis hash.
type Persistence struct {
	client goredis.UniversalClient
	logger *slog.Logger
	key    string
}

var _ persistence.Persistence = (*Persistence)(nil)

// NewPersistence connects to the server named by a redis:// or rediss:// URL.
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := goredis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewPersistenceWithClient(client, logger), nil
}

// NewPersistenceWithClient wraps an existing client.
func NewPersistenceWithClient(client goredis.UniversalClient, logger *slog.Logger) *Persistence {
	return &Persistence{client: client, logger: logger, key: DefaultKey}
}

func (p *Persistence) Close(_ context.Context) error {
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

// Workflows returns every workflow, oldest first.
func (p *Persistence) Workflows(ctx context.Context) ([]*models.StoredWorkflow, error) {
	entries, err := p.client.HGetAll(ctx, p.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	workflows := make([]*models.StoredWorkflow, 0, len(entries))

	for id, raw := range entries {
		workflow, err := decode(raw)
		if err != nil {
			p.logger.ErrorContext(ctx, "Skipping unreadable workflow", "workflow_id", id, "error", err)

			continue
		}

		workflows = append(workflows, workflow)
	}

	sort.Slice(workflows, func(i, j int) bool {
		if workflows[i].CreatedAt.Equal(workflows[j].CreatedAt) {
			return workflows[i].ID < workflows[j].ID
		}

		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows, nil
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.StoredWorkflow, error) {
	raw, err := p.client.HGet(ctx, p.key, id).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow %s: %w", id, err)
	}

	return decode(raw)
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.StoredWorkflow) error {
	if workflow.ID == "" {
		return persistence.NewWorkflowError("SaveWorkflow", "", persistence.ErrInvalidWorkflowID)
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	data, err := json.Marshal(workflow)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.ID, err)
	}

	if err := p.client.HSet(ctx, p.key, workflow.ID, data).Err(); err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", workflow.ID, err)
	}

	return nil
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	removed, err := p.client.HDel(ctx, p.key, id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	if removed == 0 {
		return persistence.NewWorkflowError("DeleteWorkflow", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

func decode(raw string) (*models.StoredWorkflow, error) {
	var workflow models.StoredWorkflow
	if err := json.Unmarshal([]byte(raw), &workflow); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow: %w", err)
	}

	return &workflow, nil
}
