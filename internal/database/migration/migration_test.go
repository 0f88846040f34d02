package migration

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"regexp"
	"testing"
	"time"

	"zamahub/internal/logging"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silence(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	logging.Setup(&buf, time.UTC)
	t.Cleanup(func() { logging.Setup(os.Stdout, time.UTC) })
	return &buf
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func expectPreamble(mock sqlmock.Sqlmock, applied ...string) {
	mock.ExpectExec("SELECT pg_advisory_lock").WithArgs(lockKey).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	rows := sqlmock.NewRows([]string{"name"})
	for _, name := range applied {
		rows.AddRow(name)
	}
	mock.ExpectQuery("SELECT name FROM schema_migrations").WillReturnRows(rows)
}

func expectStep(mock sqlmock.Sqlmock, step migrationStep) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(step.SQL[:20])).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs(step.Name).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
}

func TestEnsureMigrated_UpToDate(t *testing.T) {
	buf := silence(t)
	db, mock := newMock(t)

	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name)
	}
	expectPreamble(mock, names...)
	mock.ExpectExec("SELECT pg_advisory_unlock").WithArgs(lockKey).WillReturnResult(sqlmock.NewResult(0, 0))

	err := EnsureMigrated(context.Background(), db, "db.local")

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "db_migration_skip")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureMigrated_RunsAllSteps(t *testing.T) {
	buf := silence(t)
	db, mock := newMock(t)

	expectPreamble(mock)
	for _, s := range steps {
		expectStep(mock, s)
	}
	mock.ExpectExec("SELECT pg_advisory_unlock").WillReturnResult(sqlmock.NewResult(0, 0))

	err := EnsureMigrated(context.Background(), db, "db.local")

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), `"steps_applied":7`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureMigrated_ResumesAfterPartialRun(t *testing.T) {
	silence(t)
	db, mock := newMock(t)

	expectPreamble(mock, steps[0].Name, steps[1].Name)
	for _, s := range steps[2:] {
		expectStep(mock, s)
	}
	mock.ExpectExec("SELECT pg_advisory_unlock").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, EnsureMigrated(context.Background(), db, "db.local"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureMigrated_StepFailure(t *testing.T) {
	buf := silence(t)
	db, mock := newMock(t)

	expectPreamble(mock)
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS ens_registrations").WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()
	mock.ExpectExec("SELECT pg_advisory_unlock").WillReturnResult(sqlmock.NewResult(0, 0))

	err := EnsureMigrated(context.Background(), db, "db.local")

	assert.ErrorContains(t, err, "migration step create_table_ens_registrations failed: permission denied")
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureMigrated_LockError(t *testing.T) {
	silence(t)
	db, mock := newMock(t)

	mock.ExpectExec("SELECT pg_advisory_lock").WillReturnError(errors.New("conn refused"))

	err := EnsureMigrated(context.Background(), db, "db.local")

	assert.ErrorContains(t, err, "acquire migration lock")
}
