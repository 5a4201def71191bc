package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/composer/pkg/models"
	"github.com/dukex/composer/pkg/persistence"
	"github.com/dukex/composer/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedWorkflow(id, name string) *models.StoredWorkflow {
	return &models.StoredWorkflow{
		ID: id,
		Workflow: models.Workflow{
			Name: name,
			Nodes: []models.Node{
				{ID: "node_1", Type: "webhook", Name: "Webhook", Parameters: map[string]any{"path": "/webhook", "method": "POST"}},
				{ID: "node_2", Type: "http", Name: "HTTP Request", Parameters: map[string]any{"url": "https://example.com/api", "method": "GET"}},
			},
			Connections: []models.Connection{{Source: "node_1", Target: "node_2"}},
		},
	}
}

func TestPersistence_SaveAndLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()
	p := file.NewPersistence("file://" + root)

	workflow := storedWorkflow("wf-1", "First")
	require.NoError(t, p.SaveWorkflow(ctx, workflow))
	assert.False(t, workflow.CreatedAt.IsZero())
	assert.Equal(t, workflow.CreatedAt, workflow.UpdatedAt)

	_, err := os.Stat(filepath.Join(root, "workflows", "wf-1.json"))
	require.NoError(t, err)

	loaded, err := p.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "First", loaded.Name)
	assert.Equal(t, workflow.Nodes, loaded.Nodes)
	assert.Equal(t, workflow.Connections, loaded.Connections)
	assert.True(t, workflow.CreatedAt.Equal(loaded.CreatedAt))

	createdAt := loaded.CreatedAt
	loaded.Name = "Renamed"
	require.NoError(t, p.SaveWorkflow(ctx, loaded))

	reloaded, err := p.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", reloaded.Name)
	assert.True(t, createdAt.Equal(reloaded.CreatedAt))
	assert.False(t, reloaded.UpdatedAt.Before(createdAt))
}

func TestPersistence_Workflows(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())

	workflows, err := p.Workflows(ctx)
	require.NoError(t, err)
	assert.Empty(t, workflows)

	require.NoError(t, p.SaveWorkflow(ctx, storedWorkflow("a", "A")))
	require.NoError(t, p.SaveWorkflow(ctx, storedWorkflow("b", "B")))

	workflows, err = p.Workflows(ctx)
	require.NoError(t, err)
	require.Len(t, workflows, 2)

	ids := []string{workflows[0].ID, workflows[1].ID}
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestPersistence_NotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())

	_, err := p.WorkflowByID(ctx, "missing")
	assert.True(t, persistence.IsWorkflowNotFound(err))

	err = p.DeleteWorkflow(ctx, "missing")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestPersistence_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())

	require.NoError(t, p.SaveWorkflow(ctx, storedWorkflow("gone", "Gone")))
	require.NoError(t, p.DeleteWorkflow(ctx, "gone"))

	_, err := p.WorkflowByID(ctx, "gone")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestPersistence_RejectsUnsafeIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())

	for _, id := range []string{"", "../escape", "a/b", ".hidden"} {
		err := p.SaveWorkflow(ctx, storedWorkflow(id, "x"))
		assert.ErrorIs(t, err, persistence.ErrInvalidWorkflowID, id)

		_, err = p.WorkflowByID(ctx, id)
		assert.ErrorIs(t, err, persistence.ErrInvalidWorkflowID, id)
	}
}

func TestPersistence_HealthCheck(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "nested", "data")
	p := file.NewPersistence(root)

	require.NoError(t, p.HealthCheck(context.Background()))

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.NoError(t, p.Close(context.Background()))
}
