// Package memory holds in-process repository implementations used for local runs
// (DB_DRIVER=memory) and tests. They honour the same contracts as the postgres
// package, including sql.ErrNoRows and repository.ErrDuplicate.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"zamahub/internal/model"
	"zamahub/internal/repository"
)

// ENSRepo is an in-memory repository.ENSRepository.
type ENSRepo struct {
	mu   sync.RWMutex
	regs []model.ENSRegistration
}

// NewENSRepo constructs an empty ENSRepo.
func NewENSRepo() *ENSRepo {
	return &ENSRepo{}
}

var _ repository.ENSRepository = (*ENSRepo)(nil)

// Create appends a registration.
func (r *ENSRepo) Create(ctx context.Context, reg *model.ENSRegistration) (*model.ENSRegistration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regs = append(r.regs, *reg)
	out := *reg
	return &out, nil
}

// ListByOwner returns the owner's registrations, most recent first. Registrations
// with equal timestamps keep reverse insertion order.
func (r *ENSRepo) ListByOwner(ctx context.Context, owner string) ([]model.ENSRegistration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.ENSRegistration, 0)
	for i := len(r.regs) - 1; i >= 0; i-- {
		if r.regs[i].Owner == owner {
			out = append(out, r.regs[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RegisteredAt.After(out[j].RegisteredAt)
	})
	return out, nil
}

// SpaceRepo is an in-memory repository.SpaceRepository keyed by SpaceID.
type SpaceRepo struct {
	mu     sync.RWMutex
	spaces map[string]model.Space
}

// NewSpaceRepo constructs an empty SpaceRepo.
func NewSpaceRepo() *SpaceRepo {
	return &SpaceRepo{spaces: make(map[string]model.Space)}
}

var _ repository.SpaceRepository = (*SpaceRepo)(nil)

// Create stores s unless its SpaceID is taken.
func (r *SpaceRepo) Create(ctx context.Context, s *model.Space) (*model.Space, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.spaces[s.SpaceID]; ok {
		return nil, fmt.Errorf("%w: space_id %s", repository.ErrDuplicate, s.SpaceID)
	}
	r.spaces[s.SpaceID] = *s
	out := *s
	return &out, nil
}

// FindBySpaceID returns a copy of the stored profile.
func (r *SpaceRepo) FindBySpaceID(ctx context.Context, spaceID string) (*model.Space, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.spaces[spaceID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

// UpdateProfile applies u to the stored profile.
func (r *SpaceRepo) UpdateProfile(ctx context.Context, spaceID string, u model.ProfileUpdate) (*model.Space, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.spaces[spaceID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	u.Apply(&s)
	r.spaces[spaceID] = s
	return &s, nil
}

// List returns profiles ordered by CreatedAt descending, then SpaceID.
func (r *SpaceRepo) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Space], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	all := make([]model.Space, 0, len(r.spaces))
	for _, s := range r.spaces {
		all = append(all, s)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].SpaceID < all[j].SpaceID
	})

	total := len(all)
	start := min(max(pq.Offset, 0), total)
	end := total
	if pq.Limit > 0 {
		end = min(start+pq.Limit, total)
	}
	return &repository.PageResult[model.Space]{
		Items: all[start:end],
		Total: total,
	}, nil
}
