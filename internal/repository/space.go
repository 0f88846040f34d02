package repository

import (
	"context"

	"zamahub/internal/model"
)

// SpaceRepository persists space profiles (collection spaces).
type SpaceRepository interface {
	// Create inserts a new space profile. A second profile with the same SpaceID
	// fails with ErrDuplicate.
	Create(ctx context.Context, s *model.Space) (*model.Space, error)

	// FindBySpaceID returns the profile keyed by spaceID.
	FindBySpaceID(ctx context.Context, spaceID string) (*model.Space, error)

	// UpdateProfile overwrites the mutable fields of the profile keyed by spaceID
	// and returns the stored record.
	UpdateProfile(ctx context.Context, spaceID string, u model.ProfileUpdate) (*model.Space, error)

	// List returns profiles newest first with a total count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Space], error)
}
