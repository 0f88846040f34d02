package mocks

import (
	"context"

	"zamahub/internal/model"
	"zamahub/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockSpaceService struct {
	mock.Mock
}

func (m *MockSpaceService) Create(ctx context.Context, in service.CreateSpaceInput) (*model.Space, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Space), args.Error(1)
}

func (m *MockSpaceService) Get(ctx context.Context, spaceID string) (*model.Space, error) {
	args := m.Called(ctx, spaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Space), args.Error(1)
}

func (m *MockSpaceService) Update(ctx context.Context, in service.UpdateSpaceInput) (*model.Space, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Space), args.Error(1)
}

func (m *MockSpaceService) List(ctx context.Context, limit, offset int) (*service.SpaceListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SpaceListResult), args.Error(1)
}
