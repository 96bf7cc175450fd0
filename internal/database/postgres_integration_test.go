package database_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/apperrors"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/database"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/testhelpers"
)

func openPostgres(t *testing.T) (*database.DB, *testhelpers.PostgresDB) {
	t.Helper()
	pg := testhelpers.GetPostgresDB(t)

	db, err := database.Open(context.Background(), database.Config{
		Driver:         string(database.DialectPostgres),
		URL:            pg.AppURL,
		MaxConnections: 5,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, pg
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	db, _ := openPostgres(t)
	ctx := context.Background()
	userID := uuid.New()

	p := createProject(t, db, userID, "pg", base)
	f := createFile(t, db, userID, p.ID, "T1.sql", models.PendingState(), base)

	found, err := db.FindPendingFileByName(ctx, userID, p.ID, "t1.SQL")
	require.NoError(t, err)
	assert.Equal(t, f.ID, found.ID)

	f.State = models.FailedState("conversion timed out after 2m0s")
	require.NoError(t, db.UpdateFileState(ctx, userID, f))

	got, err := db.GetFile(ctx, userID, f.ID)
	require.NoError(t, err)
	msg, ok := got.State.ErrorMessage()
	require.True(t, ok)
	assert.Equal(t, "conversion timed out after 2m0s", msg)

	stale := *got
	stale.Version = 1
	stale.State = models.SucceededState("x")
	assert.ErrorIs(t, db.UpdateFileState(ctx, userID, &stale), apperrors.ErrConflict)
}

func TestPostgresRowLevelSecurity(t *testing.T) {
	db, pg := openPostgres(t)
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()

	p := createProject(t, db, owner, "private", base)
	createFile(t, db, owner, p.ID, "a.sql", models.PendingState(), base)

	raw, err := sql.Open("postgres", pg.AppURL)
	require.NoError(t, err)
	defer raw.Close()

	// Without a user scope no rows are visible, even with no WHERE clause.
	var n int
	require.NoError(t, raw.QueryRowContext(ctx, `SELECT COUNT(*) FROM migration_projects`).Scan(&n))
	assert.Zero(t, n)

	tx, err := raw.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()
	_, err = tx.ExecContext(ctx, `SELECT set_config('app.current_user_id', $1, true)`, other.String())
	require.NoError(t, err)
	require.NoError(t, tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM file_records`).Scan(&n))
	assert.Zero(t, n)

	// Writing a row for someone else is rejected by the policy.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO migration_projects (id, user_id, project_name) VALUES ($1, $2, 'spoof')
	`, uuid.New(), owner)
	assert.Error(t, err)
}

func TestPostgresStatusConstraint(t *testing.T) {
	pg := testhelpers.GetPostgresDB(t)
	ctx := context.Background()

	admin, err := sql.Open("postgres", pg.AdminURL)
	require.NoError(t, err)
	defer admin.Close()

	projectID := uuid.New()
	_, err = admin.ExecContext(ctx, `INSERT INTO migration_projects (id, user_id, project_name) VALUES ($1, $2, 'c')`,
		projectID, uuid.New())
	require.NoError(t, err)

	// success without converted content violates the content/status check
	_, err = admin.ExecContext(ctx, `
		INSERT INTO file_records (id, migration_id, file_name, file_type, original_content, conversion_status)
		VALUES ($1, $2, 'a.sql', 'table', 'x', 'success')
	`, uuid.New(), projectID)
	assert.Error(t, err)
}
