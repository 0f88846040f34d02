package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"zamahub/internal/chain"
	"zamahub/internal/events"
	"zamahub/internal/logging"
	"zamahub/internal/model"
	"zamahub/internal/repository"
	"zamahub/internal/storage"
)

// ProfileFields are the mutable text fields of a space profile.
type ProfileFields struct {
	ShortDescription string
	TwitterHandle    string
	Website          string
	LongDescription  string
}

// CreateSpaceInput describes a new space profile.
type CreateSpaceInput struct {
	SpaceID     string
	ENSName     string
	DisplayName string
	Owner       string
	Profile     ProfileFields
	Picture     *Upload
}

// UpdateSpaceInput describes a profile update requested by UserAddress.
type UpdateSpaceInput struct {
	SpaceID     string
	UserAddress string
	Profile     ProfileFields
	Picture     *Upload
}

// SpaceListResult is the service-level DTO for paginated spaces.
type SpaceListResult struct {
	Items []model.Space `json:"spaces"`
	Total int           `json:"total"`
}

// SpaceService defines the use cases for space profiles.
type SpaceService interface {
	// Create uploads the optional picture, then inserts the profile. The picture is
	// removed again if the insert fails.
	Create(ctx context.Context, in CreateSpaceInput) (*model.Space, error)

	// Get returns the profile keyed by spaceID.
	Get(ctx context.Context, spaceID string) (*model.Space, error)

	// Update checks on-chain ownership, uploads the optional picture and overwrites
	// the profile metadata. Nothing is written when the requester is not the owner.
	Update(ctx context.Context, in UpdateSpaceInput) (*model.Space, error)

	// List returns profiles newest first using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*SpaceListResult, error)
}

type spaceService struct {
	repo    repository.SpaceRepository
	store   storage.Storage
	owners  chain.OwnershipChecker
	bus     events.Bus
	timeout time.Duration
	now     func() time.Time
}

// NewSpaceService constructs a SpaceService. chainTimeout bounds each ownership call.
func NewSpaceService(repo repository.SpaceRepository, store storage.Storage, owners chain.OwnershipChecker, bus events.Bus, chainTimeout time.Duration) SpaceService {
	if owners == nil {
		owners = chain.Disabled{}
	}
	return &spaceService{
		repo:    repo,
		store:   store,
		owners:  owners,
		bus:     bus,
		timeout: chainTimeout,
		now:     time.Now,
	}
}

// spaceKey trims id and lowercases it when it is a hex value. Any other id is an
// opaque string and is kept as given.
func spaceKey(id string) string {
	id = strings.TrimSpace(id)
	if _, err := chain.ParseSpaceID(id); err == nil {
		return strings.ToLower(id)
	}
	return id
}

func (s *spaceService) Create(ctx context.Context, in CreateSpaceInput) (sp *model.Space, err error) {
	ctx, span := tracer.Start(ctx, "SpaceService.Create")
	defer func() { endSpan(span, err) }()

	ensName := strings.TrimSpace(in.ENSName)
	displayName := strings.TrimSpace(in.DisplayName)
	owner := strings.TrimSpace(in.Owner)
	spaceID := spaceKey(in.SpaceID)
	if spaceID == "" || ensName == "" || displayName == "" || owner == "" {
		return nil, invalid("spaceId, ensName, displayName and owner are required")
	}
	if _, err := chain.ParseAddress(owner); err != nil {
		return nil, invalid("owner %q is not a hex address", owner)
	}
	span.SetAttributes(attribute.String("space.id", spaceID))

	var key, picture string
	if in.Picture.present() {
		key, picture, err = saveUpload(ctx, s.store, in.Picture)
		if err != nil {
			err = wrap(ErrIO, "upload profile picture", err)
			logging.ErrorCtx(ctx, "space_create_failed", map[string]any{"space_id": spaceID, "error": err})
			return nil, err
		}
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	sp = &model.Space{
		ID:               uuid.New().String(),
		SpaceID:          spaceID,
		ENSName:          ensName,
		DisplayName:      displayName,
		Owner:            strings.ToLower(owner),
		ProfilePicture:   picture,
		ShortDescription: in.Profile.ShortDescription,
		TwitterHandle:    in.Profile.TwitterHandle,
		Website:          in.Profile.Website,
		LongDescription:  in.Profile.LongDescription,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	stored, err := s.repo.Create(ctx, sp)
	if err != nil {
		rollbackUpload(ctx, s.store, key)
		if errors.Is(err, repository.ErrDuplicate) {
			err = wrap(ErrConflict, "space "+spaceID, err)
		} else {
			err = wrap(ErrPersistence, "insert space", err)
		}
		logging.ErrorCtx(ctx, "space_create_failed", map[string]any{"space_id": spaceID, "error": err})
		return nil, err
	}

	logging.InfoCtx(ctx, "space_created", map[string]any{"space_id": stored.SpaceID, "id": stored.ID, "owner": stored.Owner})
	s.publish(ctx, events.TypeSpaceCreated, stored.SpaceID)
	return stored, nil
}

func (s *spaceService) Get(ctx context.Context, spaceID string) (sp *model.Space, err error) {
	ctx, span := tracer.Start(ctx, "SpaceService.Get")
	defer func() { endSpan(span, err) }()

	id := spaceKey(spaceID)
	if id == "" {
		return nil, invalid("spaceId is required")
	}
	span.SetAttributes(attribute.String("space.id", id))

	sp, err = s.repo.FindBySpaceID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wrap(ErrNotFound, "space "+id, err)
		}
		err = wrap(ErrPersistence, "find space", err)
		logging.ErrorCtx(ctx, "space_get_failed", map[string]any{"space_id": id, "error": err})
		return nil, err
	}
	return sp, nil
}

func (s *spaceService) Update(ctx context.Context, in UpdateSpaceInput) (sp *model.Space, err error) {
	ctx, span := tracer.Start(ctx, "SpaceService.Update")
	defer func() { endSpan(span, err) }()

	spaceID := spaceKey(in.SpaceID)
	if spaceID == "" {
		return nil, invalid("spaceId is required")
	}
	user := strings.TrimSpace(in.UserAddress)
	if user == "" {
		return nil, invalid("userAddress is required")
	}
	if _, err := chain.ParseAddress(user); err != nil {
		return nil, invalid("userAddress %q is not a hex address", user)
	}
	user = strings.ToLower(user)
	span.SetAttributes(attribute.String("space.id", spaceID), attribute.String("space.requester", user))

	fail := func(e error) (*model.Space, error) {
		logging.ErrorCtx(ctx, "space_update_failed", map[string]any{"space_id": spaceID, "user": user, "error": e})
		return nil, e
	}

	cctx, cancel := withTimeout(ctx, s.timeout)
	owned, cerr := s.owners.IsSpaceOwner(cctx, spaceID, user)
	cancel()
	if cerr != nil {
		return fail(wrap(ErrBlockchainUnavailable, "isSpaceOwner", cerr))
	}
	if !owned {
		logging.WarnCtx(ctx, "space_update_denied", map[string]any{"space_id": spaceID, "user": user})
		return nil, wrap(ErrUnauthorized, "space "+spaceID, errors.New("requester is not the space owner"))
	}

	current, err := s.repo.FindBySpaceID(ctx, spaceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wrap(ErrNotFound, "space "+spaceID, err)
		}
		return fail(wrap(ErrPersistence, "find space", err))
	}

	var key, picture string
	if in.Picture.present() {
		key, picture, err = saveUpload(ctx, s.store, in.Picture)
		if err != nil {
			return fail(wrap(ErrIO, "upload profile picture", err))
		}
	}

	update := model.ProfileUpdate{
		ShortDescription: in.Profile.ShortDescription,
		TwitterHandle:    in.Profile.TwitterHandle,
		Website:          in.Profile.Website,
		LongDescription:  in.Profile.LongDescription,
		ProfilePicture:   picture,
		UpdatedAt:        nextUpdatedAt(current.UpdatedAt, s.now()),
	}
	sp, err = s.repo.UpdateProfile(ctx, spaceID, update)
	if err != nil {
		rollbackUpload(ctx, s.store, key)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wrap(ErrNotFound, "space "+spaceID, err)
		}
		return fail(wrap(ErrPersistence, "update space", err))
	}

	logging.InfoCtx(ctx, "space_updated", map[string]any{"space_id": spaceID, "user": user, "picture_replaced": picture != ""})
	s.publish(ctx, events.TypeSpaceUpdated, spaceID)
	return sp, nil
}

// nextUpdatedAt returns now at microsecond precision, bumped past prev when the clock
// has not moved on.
func nextUpdatedAt(prev, now time.Time) time.Time {
	t := now.UTC().Truncate(time.Microsecond)
	if !t.After(prev) {
		t = prev.UTC().Add(time.Microsecond)
	}
	return t
}

func (s *spaceService) List(ctx context.Context, limit, offset int) (res *SpaceListResult, err error) {
	ctx, span := tracer.Start(ctx, "SpaceService.List")
	defer func() { endSpan(span, err) }()

	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	page, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		err = wrap(ErrPersistence, "list spaces", err)
		logging.ErrorCtx(ctx, "space_list_failed", map[string]any{"limit": limit, "offset": offset, "error": err})
		return nil, err
	}
	return &SpaceListResult{Items: page.Items, Total: page.Total}, nil
}

func (s *spaceService) publish(ctx context.Context, typ, spaceID string) {
	if s.bus == nil {
		return
	}
	ev := events.Event{Type: typ, SpaceID: spaceID, Timestamp: s.now().UTC()}
	if err := s.bus.Publish(context.WithoutCancel(ctx), ev); err != nil {
		logging.WarnCtx(ctx, "space_event_publish_failed", map[string]any{"space_id": spaceID, "type": typ, "error": err})
	}
}
