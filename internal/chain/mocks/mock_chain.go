package mocks

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"

	"zamahub/internal/chain"
)

type MockOwnershipChecker struct {
	mock.Mock
}

var _ chain.OwnershipChecker = (*MockOwnershipChecker)(nil)

func (m *MockOwnershipChecker) IsSpaceOwner(ctx context.Context, spaceID, user string) (bool, error) {
	args := m.Called(ctx, spaceID, user)
	return args.Bool(0), args.Error(1)
}

func (m *MockOwnershipChecker) GetOwnerSpaces(ctx context.Context, owner string) ([]string, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockOwnerResolver struct {
	mock.Mock
}

var _ chain.OwnerResolver = (*MockOwnerResolver)(nil)

func (m *MockOwnerResolver) OwnerOf(ctx context.Context, node common.Hash) (common.Address, error) {
	args := m.Called(ctx, node)
	return args.Get(0).(common.Address), args.Error(1)
}
