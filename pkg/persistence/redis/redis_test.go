package redis_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dukex/composer/pkg/models"
	"github.com/dukex/composer/pkg/persistence"
	"github.com/dukex/composer/pkg/persistence/redis"
	"github.com/dukex/composer/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) (*redis.Persistence, context.Context) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping redis tests in short mode")
	}

	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	t.Cleanup(cancel)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	endpoint, err := container.PortEndpoint(ctx, "6379/tcp", "redis")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := redis.NewPersistence(ctx, logger, endpoint)
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, p.Close(ctx))
	})

	return p, ctx
}

func workflow(id, name string) *models.StoredWorkflow {
	return testutil.CreateStoredWorkflow(id, testutil.WithName(name),
		testutil.WithNodes(testutil.CreateTestNode(testutil.WithNodeID("node_1"))))
}

func TestPersistence_CRUD(t *testing.T) {
	p, ctx := setupRedis(t)

	require.NoError(t, p.HealthCheck(ctx))

	first := workflow("wf-1", "First")
	require.NoError(t, p.SaveWorkflow(ctx, first))

	time.Sleep(time.Millisecond)
	require.NoError(t, p.SaveWorkflow(ctx, workflow("wf-2", "Second")))

	loaded, err := p.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "First", loaded.Name)
	assert.Equal(t, first.Nodes, loaded.Nodes)

	all, err := p.Workflows(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "wf-1", all[0].ID)
	assert.Equal(t, "wf-2", all[1].ID)

	require.NoError(t, p.DeleteWorkflow(ctx, "wf-1"))

	_, err = p.WorkflowByID(ctx, "wf-1")
	assert.True(t, persistence.IsWorkflowNotFound(err))

	err = p.DeleteWorkflow(ctx, "wf-1")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestPersistence_SaveRequiresID(t *testing.T) {
	p, ctx := setupRedis(t)

	err := p.SaveWorkflow(ctx, workflow("", "No ID"))
	assert.ErrorIs(t, err, persistence.ErrInvalidWorkflowID)
}
