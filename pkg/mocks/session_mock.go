package mocks

import (
	"context"

	"github.com/dukex/composer/pkg/models"
	"github.com/dukex/composer/pkg/session"
	"github.com/stretchr/testify/mock"
)

// MockNotifier is a mock implementation of session.Notifier interface.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Info(message string) {
	m.Called(message)
}

func (m *MockNotifier) Error(message string) {
	m.Called(message)
}

// MockConfirmer is a mock implementation of session.Confirmer interface.
type MockConfirmer struct {
	mock.Mock
}

func (m *MockConfirmer) Confirm(prompt string) bool {
	args := m.Called(prompt)

	return args.Bool(0)
}

// MockRenderer is a mock implementation of session.Renderer interface.
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(view session.View) {
	m.Called(view)
}

// MockSaver is a mock implementation of session.Saver interface.
type MockSaver struct {
	mock.Mock
}

func (m *MockSaver) Submit(ctx context.Context, remoteID string, workflow models.Workflow) (string, error) {
	args := m.Called(ctx, remoteID, workflow)

	return args.String(0), args.Error(1)
}

// MockDrafter is a mock implementation of session.Drafter interface.
type MockDrafter struct {
	mock.Mock
}

func (m *MockDrafter) Generate(ctx context.Context, description string) (*models.Workflow, error) {
	args := m.Called(ctx, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Workflow), args.Error(1)
}
