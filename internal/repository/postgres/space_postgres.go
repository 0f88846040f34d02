package postgres

import (
	"context"
	"database/sql"

	"zamahub/internal/model"
	"zamahub/internal/repository"
)

// SpacePostgres is a PostgreSQL implementation of repository.SpaceRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type SpacePostgres struct {
	db *sql.DB
}

// NewSpacePostgres creates a new SpacePostgres repository.
func NewSpacePostgres(db *sql.DB) *SpacePostgres {
	return &SpacePostgres{db: db}
}

var _ repository.SpaceRepository = (*SpacePostgres)(nil)

const spaceColumns = `id, space_id, ens_name, display_name, owner, profile_picture,
		short_description, twitter_handle, website, long_description, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSpace(row scanner) (*model.Space, error) {
	var s model.Space
	if err := row.Scan(
		&s.ID,
		&s.SpaceID,
		&s.ENSName,
		&s.DisplayName,
		&s.Owner,
		&s.ProfilePicture,
		&s.ShortDescription,
		&s.TwitterHandle,
		&s.Website,
		&s.LongDescription,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a new space row and returns the stored record.
func (r *SpacePostgres) Create(ctx context.Context, s *model.Space) (*model.Space, error) {
	const q = `
		INSERT INTO spaces (` + spaceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + spaceColumns
	row := r.db.QueryRowContext(ctx, q,
		s.ID,
		s.SpaceID,
		s.ENSName,
		s.DisplayName,
		s.Owner,
		s.ProfilePicture,
		s.ShortDescription,
		s.TwitterHandle,
		s.Website,
		s.LongDescription,
		s.CreatedAt,
		s.UpdatedAt,
	)
	out, err := scanSpace(row)
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// FindBySpaceID fetches a single space by its external space id.
func (r *SpacePostgres) FindBySpaceID(ctx context.Context, spaceID string) (*model.Space, error) {
	const q = `SELECT ` + spaceColumns + ` FROM spaces WHERE space_id = $1`
	return scanSpace(r.db.QueryRowContext(ctx, q, spaceID))
}

// UpdateProfile sets the mutable profile columns. profile_picture is only replaced
// when a new value is given.
func (r *SpacePostgres) UpdateProfile(ctx context.Context, spaceID string, u model.ProfileUpdate) (*model.Space, error) {
	const q = `
		UPDATE spaces SET
			short_description = $2,
			twitter_handle    = $3,
			website           = $4,
			long_description  = $5,
			profile_picture   = COALESCE(NULLIF($6, ''), profile_picture),
			updated_at        = $7
		WHERE space_id = $1
		RETURNING ` + spaceColumns
	row := r.db.QueryRowContext(ctx, q,
		spaceID,
		u.ShortDescription,
		u.TwitterHandle,
		u.Website,
		u.LongDescription,
		u.ProfilePicture,
		u.UpdatedAt,
	)
	return scanSpace(row)
}

// List returns spaces using LIMIT/OFFSET pagination and a total count.
func (r *SpacePostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Space], error) {
	const qCount = `SELECT COUNT(*) FROM spaces`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `SELECT ` + spaceColumns + `
		FROM spaces
		ORDER BY created_at DESC, space_id ASC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Space, 0)
	for rows.Next() {
		s, err := scanSpace(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Space]{
		Items: items,
		Total: total,
	}, nil
}
