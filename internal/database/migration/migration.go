package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"zamahub/internal/logging"
)

type migrationStep struct {
	Name string
	SQL  string
}

// lockKey serializes migrations across instances starting at the same time.
const lockKey int64 = 0x7a616d61

const ledgerDDL = `CREATE TABLE IF NOT EXISTS schema_migrations (
  name       TEXT        PRIMARY KEY,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

var steps = []migrationStep{
	{
		Name: "create_table_ens_registrations",
		SQL: `CREATE TABLE IF NOT EXISTS ens_registrations (
  id            UUID        PRIMARY KEY,
  ens_name      TEXT        NOT NULL,
  node_hash     TEXT        NOT NULL,
  owner         TEXT        NOT NULL CHECK (owner = lower(owner)),
  registered_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_ens_registrations_owner",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_ens_registrations_owner ON ens_registrations (owner, registered_at DESC);`,
	},
	{
		Name: "create_table_spaces",
		SQL: `CREATE TABLE IF NOT EXISTS spaces (
  id                UUID        PRIMARY KEY,
  space_id          TEXT        NOT NULL,
  ens_name          TEXT        NOT NULL,
  display_name      TEXT        NOT NULL,
  owner             TEXT        NOT NULL,
  profile_picture   TEXT        NOT NULL DEFAULT '',
  short_description TEXT        NOT NULL DEFAULT '',
  twitter_handle    TEXT        NOT NULL DEFAULT '',
  website           TEXT        NOT NULL DEFAULT '',
  long_description  TEXT        NOT NULL DEFAULT '',
  created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_unique_index_spaces_space_id",
		SQL:  `CREATE UNIQUE INDEX IF NOT EXISTS idx_spaces_space_id ON spaces (space_id);`,
	},
	{
		Name: "create_index_spaces_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_spaces_created_at ON spaces (created_at);`,
	},
	{
		// Insertion order for registrations sharing a registered_at.
		Name: "add_column_ens_registrations_seq",
		SQL:  `ALTER TABLE ens_registrations ADD COLUMN IF NOT EXISTS seq BIGSERIAL;`,
	},
	{
		Name: "create_index_ens_registrations_owner_seq",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_ens_registrations_owner_seq ON ens_registrations (owner, registered_at DESC, seq DESC);`,
	},
}

// EnsureMigrated applies every step not yet recorded in schema_migrations. Each step
// commits together with its ledger row, so a failed run resumes where it stopped.
func EnsureMigrated(ctx context.Context, db *sql.DB, dbHost string) error {
	start := time.Now()
	log := func(event, status string, fields map[string]any) {
		entry := map[string]any{
			"component":   "database",
			"event":       event,
			"status":      status,
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		}
		for k, v := range fields {
			entry[k] = v
		}
		logging.JSON(entry)
	}
	fail := func(step string, err error) error {
		log("db_migration_failed", "error", map[string]any{"migration_step": step, "error_message": err.Error()})
		return err
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return fail("", fmt.Errorf("acquire connection: %w", err))
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", lockKey); err != nil {
		return fail("", fmt.Errorf("acquire migration lock: %w", err))
	}
	defer conn.ExecContext(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock($1)", lockKey)

	if _, err := conn.ExecContext(ctx, ledgerDDL); err != nil {
		return fail("create_table_schema_migrations", fmt.Errorf("create ledger: %w", err))
	}
	applied, err := appliedSteps(ctx, conn)
	if err != nil {
		return fail("", err)
	}

	pending := 0
	for _, step := range steps {
		if applied[step.Name] {
			continue
		}
		pending++
		stepStart := time.Now()
		if err := apply(ctx, conn, step); err != nil {
			return fail(step.Name, fmt.Errorf("migration step %s failed: %w", step.Name, err))
		}
		log("db_migration_step", "success", map[string]any{
			"migration_step":   step.Name,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	if pending == 0 {
		log("db_migration_skip", "success", map[string]any{"msg": "schema is up to date"})
		return nil
	}
	log("db_migration_success", "success", map[string]any{"steps_applied": pending})
	return nil
}

func appliedSteps(ctx context.Context, conn *sql.Conn) (map[string]bool, error) {
	rows, err := conn.QueryContext(ctx, "SELECT name FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	defer rows.Close()

	done := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		done[name] = true
	}
	return done, rows.Err()
}

func apply(ctx context.Context, conn *sql.Conn, step migrationStep) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (name) VALUES ($1)", step.Name); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
