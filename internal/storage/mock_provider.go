package storage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/JakeFAU/fact-poller/internal/fact"
)

// MockProvider is a mock implementation of the Provider interface for testing.
type MockProvider struct {
	mock.Mock
}

// Save is the mock implementation of the Save method.
func (m *MockProvider) Save(ctx context.Context, f fact.Fact) (string, error) {
	args := m.Called(ctx, f)
	return args.String(0), args.Error(1) //nolint:wrapcheck
}

// Name is the mock implementation of the Name method.
func (m *MockProvider) Name() string {
	return m.Called().String(0)
}

// Close is the mock implementation of the Close method.
func (m *MockProvider) Close() error {
	return m.Called().Error(0) //nolint:wrapcheck
}
