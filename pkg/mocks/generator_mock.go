package mocks

import (
	"context"

	"github.com/dukex/composer/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockGenerator is a mock implementation of generator.Generator interface.
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Name() string {
	args := m.Called()

	return args.String(0)
}

func (m *MockGenerator) Generate(ctx context.Context, description string) (*models.Workflow, error) {
	args := m.Called(ctx, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Workflow), args.Error(1)
}
