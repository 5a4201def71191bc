package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dukex/composer/pkg/events"
	"github.com/dukex/composer/pkg/generator"
	"github.com/dukex/composer/pkg/mocks"
	"github.com/dukex/composer/pkg/models"
	"github.com/dukex/composer/pkg/persistence"
	"github.com/dukex/composer/pkg/persistence/file"
	"github.com/dukex/composer/pkg/services"
	"github.com/dukex/composer/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleWorkflow() models.Workflow {
	return testutil.CreateTestWorkflow(testutil.WithName("Sync"))
}

func fixedID(id string) services.Option {
	return services.WithIDGenerator(func() string { return id })
}

func TestWorkflow_CreateUpdateDelete_File(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service := services.NewWorkflow(file.NewPersistence(t.TempDir()))

	created, err := service.Create(ctx, sampleWorkflow())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	fetched, err := service.FetchByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Workflow, fetched.Workflow)

	changed := sampleWorkflow()
	changed.Name = "Renamed"
	changed.Nodes = changed.Nodes[:1]
	changed.Connections = nil

	updated, err := service.Update(ctx, created.ID, changed)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, []models.Connection{}, updated.Connections)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	all, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, service.Delete(ctx, created.ID))

	_, err = service.FetchByID(ctx, created.ID)
	assert.ErrorIs(t, err, services.ErrWorkflowNotFound)
}

func TestWorkflow_CreateValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*models.Workflow)
		wantErr error
	}{
		{
			name:    "missing name",
			mutate:  func(w *models.Workflow) { w.Name = " " },
			wantErr: services.ErrWorkflowNameRequired,
		},
		{
			name:    "node without type",
			mutate:  func(w *models.Workflow) { w.Nodes[0].Type = "" },
			wantErr: services.ErrInvalidRequest,
		},
		{
			name:    "duplicate node id",
			mutate:  func(w *models.Workflow) { w.Nodes[1].ID = "node_1" },
			wantErr: services.ErrDuplicateNodeID,
		},
		{
			name: "dangling connection",
			mutate: func(w *models.Workflow) {
				w.Connections = append(w.Connections, models.Connection{Source: "node_2", Target: "node_9"})
			},
			wantErr: services.ErrInvalidConnectionData,
		},
		{
			name: "reversed connection",
			mutate: func(w *models.Workflow) {
				w.Connections = []models.Connection{{Source: "node_2", Target: "node_1"}}
			},
			wantErr: services.ErrNonLinearWorkflow,
		},
		{
			name:    "missing connection",
			mutate:  func(w *models.Workflow) { w.Connections = nil },
			wantErr: services.ErrNonLinearWorkflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &mocks.MockPersistence{}
			service := services.NewWorkflow(store)

			workflow := sampleWorkflow()
			tt.mutate(&workflow)

			_, err := service.Create(context.Background(), workflow)
			require.ErrorIs(t, err, tt.wantErr)
			assert.True(t, services.IsValidationError(err))

			var serviceErr *services.ServiceError
			require.ErrorAs(t, err, &serviceErr)
			assert.Equal(t, "Create", serviceErr.Op)

			store.AssertNotCalled(t, "SaveWorkflow", mock.Anything, mock.Anything)
		})
	}
}

func TestWorkflow_CreatePublishesEvent(t *testing.T) {
	t.Parallel()

	store := &mocks.MockPersistence{}
	bus := &mocks.MockEventBus{}

	store.On("SaveWorkflow", mock.Anything, mock.MatchedBy(func(w *models.StoredWorkflow) bool {
		return w.ID == "wf-1" && w.Name == "Sync"
	})).Return(nil).Once()

	bus.On("Publish", mock.Anything, "wf-1", mock.MatchedBy(func(e events.WorkflowCreated) bool {
		return e.WorkflowID == "wf-1" && e.NodeCount == 2 && e.Name == "Sync"
	})).Return(nil).Once()

	service := services.NewWorkflow(store, services.WithPublisher(bus), fixedID("wf-1"))

	created, err := service.Create(context.Background(), sampleWorkflow())
	require.NoError(t, err)
	assert.Equal(t, "wf-1", created.ID)

	store.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestWorkflow_PublishFailureDoesNotFailRequest(t *testing.T) {
	t.Parallel()

	store := &mocks.MockPersistence{}
	bus := &mocks.MockEventBus{}

	store.On("DeleteWorkflow", mock.Anything, "wf-1").Return(nil).Once()
	bus.On("Publish", mock.Anything, "wf-1", mock.AnythingOfType("events.WorkflowDeleted")).
		Return(errors.New("broker down")).Once()

	service := services.NewWorkflow(store, services.WithPublisher(bus))

	require.NoError(t, service.Delete(context.Background(), "wf-1"))
	bus.AssertExpectations(t)
}

func TestWorkflow_UpdateUnknown(t *testing.T) {
	t.Parallel()

	store := &mocks.MockPersistence{}
	store.On("WorkflowByID", mock.Anything, "missing").
		Return(nil, persistence.NewWorkflowError("WorkflowByID", "missing", persistence.ErrWorkflowNotFound)).Once()

	service := services.NewWorkflow(store)

	_, err := service.Update(context.Background(), "missing", sampleWorkflow())
	assert.True(t, persistence.IsWorkflowNotFound(err))
	store.AssertNotCalled(t, "SaveWorkflow", mock.Anything, mock.Anything)
}

func TestWorkflow_UpdateKeepsCreatedAt(t *testing.T) {
	t.Parallel()

	createdAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	store := &mocks.MockPersistence{}

	store.On("WorkflowByID", mock.Anything, "wf-1").Return(&models.StoredWorkflow{
		ID:        "wf-1",
		Workflow:  sampleWorkflow(),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, nil).Once()
	store.On("SaveWorkflow", mock.Anything, mock.MatchedBy(func(w *models.StoredWorkflow) bool {
		return w.ID == "wf-1" && w.CreatedAt.Equal(createdAt) && w.UpdatedAt.After(createdAt)
	})).Return(nil).Once()

	service := services.NewWorkflow(store)

	_, err := service.Update(context.Background(), "wf-1", sampleWorkflow())
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestWorkflow_DeleteErrors(t *testing.T) {
	t.Parallel()

	store := &mocks.MockPersistence{}
	store.On("DeleteWorkflow", mock.Anything, "missing").Return(persistence.ErrWorkflowNotFound).Once()
	store.On("DeleteWorkflow", mock.Anything, "broken").Return(errors.New("disk full")).Once()

	service := services.NewWorkflow(store)

	err := service.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, services.ErrWorkflowNotFound)

	err = service.Delete(context.Background(), "broken")
	require.Error(t, err)
	assert.False(t, persistence.IsWorkflowNotFound(err))
	assert.Contains(t, err.Error(), "failed to delete workflow")
}

func TestWorkflow_Generate(t *testing.T) {
	t.Parallel()

	draft := sampleWorkflow()
	gen := &mocks.MockGenerator{}
	bus := &mocks.MockEventBus{}

	gen.On("Name").Return("rule-based")
	gen.On("Generate", mock.Anything, "every hour fetch").Return(&draft, nil).Once()
	bus.On("Publish", mock.Anything, "", mock.MatchedBy(func(e events.WorkflowGenerated) bool {
		return e.Generator == "rule-based" && e.Description == "every hour fetch" && e.NodeCount == 2
	})).Return(nil).Once()

	service := services.NewWorkflow(&mocks.MockPersistence{},
		services.WithGenerator(gen), services.WithPublisher(bus))

	got, err := service.Generate(context.Background(), "  every hour fetch ")
	require.NoError(t, err)
	assert.Equal(t, &draft, got)

	gen.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestWorkflow_GenerateErrors(t *testing.T) {
	t.Parallel()

	gen := &mocks.MockGenerator{}
	gen.On("Name").Return("llm")
	gen.On("Generate", mock.Anything, "explode").Return(nil, generator.ErrInvalidOutput).Once()

	service := services.NewWorkflow(&mocks.MockPersistence{}, services.WithGenerator(gen))

	_, err := service.Generate(context.Background(), "   ")
	require.ErrorIs(t, err, services.ErrDescriptionRequired)
	assert.True(t, services.IsValidationError(err))

	_, err = service.Generate(context.Background(), "explode")
	require.ErrorIs(t, err, services.ErrGenerationFailed)
	assert.ErrorIs(t, err, generator.ErrInvalidOutput)
	assert.False(t, services.IsValidationError(err))

	_, err = services.NewWorkflow(&mocks.MockPersistence{}).Generate(context.Background(), "anything")
	assert.ErrorIs(t, err, services.ErrGeneratorUnavailable)
}

func TestWorkflow_HealthCheck(t *testing.T) {
	t.Parallel()

	store := &mocks.MockPersistence{}
	store.On("HealthCheck", mock.Anything).Return(errors.New("connection refused")).Once()

	message, ok := services.NewWorkflow(store).HealthCheck(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "Persistence layer is unhealthy: connection refused", message)

	message, ok = services.NewWorkflow(nil).HealthCheck(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "Persistence layer not initialized", message)
}
