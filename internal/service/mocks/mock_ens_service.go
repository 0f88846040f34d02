package mocks

import (
	"context"

	"zamahub/internal/model"
	"zamahub/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockENSService struct {
	mock.Mock
}

func (m *MockENSService) Register(ctx context.Context, in service.RegisterENSInput) (*model.ENSRegistration, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ENSRegistration), args.Error(1)
}

func (m *MockENSService) ListByOwner(ctx context.Context, owner string) ([]string, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
