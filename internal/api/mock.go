package api

import (
	"context"

	"github.com/npezzotti/go-chatroom-client/internal/types"
	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) Login(ctx context.Context, creds types.Credentials) (types.AuthResponse, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(types.AuthResponse), args.Error(1)
}
func (m *MockClient) Signup(ctx context.Context, creds types.Credentials) (types.AuthResponse, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(types.AuthResponse), args.Error(1)
}
func (m *MockClient) ListRooms(ctx context.Context) ([]types.Room, error) {
	args := m.Called(ctx)
	if rooms, ok := args.Get(0).([]types.Room); ok {
		return rooms, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockClient) CreateRoom(ctx context.Context, name string) (types.Room, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(types.Room), args.Error(1)
}
func (m *MockClient) DeleteRoom(ctx context.Context, id types.RoomID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockClient) GetRoom(ctx context.Context, id types.RoomID) (types.RoomDetail, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.RoomDetail), args.Error(1)
}
