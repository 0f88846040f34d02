package mocks

import (
	"context"

	"zamahub/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockENSRepository struct {
	mock.Mock
}

func (m *MockENSRepository) Create(ctx context.Context, reg *model.ENSRegistration) (*model.ENSRegistration, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ENSRegistration), args.Error(1)
}

func (m *MockENSRepository) ListByOwner(ctx context.Context, owner string) ([]model.ENSRegistration, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ENSRegistration), args.Error(1)
}
