package store

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockUsernameStore struct {
	mock.Mock
}

func (m *MockUsernameStore) GetUsername(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
func (m *MockUsernameStore) SetUsername(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}
func (m *MockUsernameStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
