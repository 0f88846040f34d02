package postgres

import (
	"context"
	"database/sql"

	"zamahub/internal/model"
	"zamahub/internal/repository"
)

// ENSPostgres is a PostgreSQL implementation of repository.ENSRepository.
type ENSPostgres struct {
	db *sql.DB
}

// NewENSPostgres creates a new ENSPostgres repository.
func NewENSPostgres(db *sql.DB) *ENSPostgres {
	return &ENSPostgres{db: db}
}

var _ repository.ENSRepository = (*ENSPostgres)(nil)

// Create inserts a registration row and returns the stored record.
func (r *ENSPostgres) Create(ctx context.Context, reg *model.ENSRegistration) (*model.ENSRegistration, error) {
	const q = `
		INSERT INTO ens_registrations (id, ens_name, node_hash, owner, registered_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, ens_name, node_hash, owner, registered_at
	`
	row := r.db.QueryRowContext(ctx, q,
		reg.ID,
		reg.ENSName,
		reg.NodeHash,
		reg.Owner,
		reg.RegisteredAt,
	)
	var out model.ENSRegistration
	if err := row.Scan(
		&out.ID,
		&out.ENSName,
		&out.NodeHash,
		&out.Owner,
		&out.RegisteredAt,
	); err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// ListByOwner returns registrations of owner, newest first. seq breaks ties between
// registrations stored within the same microsecond.
func (r *ENSPostgres) ListByOwner(ctx context.Context, owner string) ([]model.ENSRegistration, error) {
	const q = `
		SELECT id, ens_name, node_hash, owner, registered_at
		FROM ens_registrations
		WHERE owner = $1
		ORDER BY registered_at DESC, seq DESC
	`
	rows, err := r.db.QueryContext(ctx, q, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.ENSRegistration, 0)
	for rows.Next() {
		var reg model.ENSRegistration
		if err := rows.Scan(
			&reg.ID,
			&reg.ENSName,
			&reg.NodeHash,
			&reg.Owner,
			&reg.RegisteredAt,
		); err != nil {
			return nil, err
		}
		items = append(items, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
