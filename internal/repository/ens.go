package repository

import (
	"context"

	"zamahub/internal/model"
)

// ENSRepository persists ENS registrations (collection ens_registrations).
type ENSRepository interface {
	// Create inserts a new registration and returns the stored record.
	Create(ctx context.Context, reg *model.ENSRegistration) (*model.ENSRegistration, error)

	// ListByOwner returns the registrations of owner, most recent first.
	// owner is matched exactly; callers normalize it.
	ListByOwner(ctx context.Context, owner string) ([]model.ENSRegistration, error)
}
