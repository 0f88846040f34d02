package mocks

import (
	"context"

	"zamahub/internal/model"
	"zamahub/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockSpaceRepository struct {
	mock.Mock
}

func (m *MockSpaceRepository) Create(ctx context.Context, s *model.Space) (*model.Space, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Space), args.Error(1)
}

func (m *MockSpaceRepository) FindBySpaceID(ctx context.Context, spaceID string) (*model.Space, error) {
	args := m.Called(ctx, spaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Space), args.Error(1)
}

func (m *MockSpaceRepository) UpdateProfile(ctx context.Context, spaceID string, u model.ProfileUpdate) (*model.Space, error) {
	args := m.Called(ctx, spaceID, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Space), args.Error(1)
}

func (m *MockSpaceRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Space], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Space]), args.Error(1)
}
