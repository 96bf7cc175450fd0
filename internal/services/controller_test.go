package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/apperrors"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
)

const tableDDL = "CREATE TABLE customers (id INT, name VARCHAR(50))"

func uploadOne(t *testing.T, c *Controller, userID uuid.UUID, name, content string) *models.FileRecord {
	t.Helper()
	result, err := c.UploadFiles(context.Background(), userID, nil, []models.FileInput{{FileName: name, Content: content}})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	return &result.Files[0]
}

func TestStartProject(t *testing.T) {
	c, _ := newTestController(t, nil, Options{})
	ctx := context.Background()
	userID := uuid.New()

	p, err := c.StartProject(ctx, userID, "  ")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.ProjectName, "Migration 2026-03-01 "), p.ProjectName)

	named, err := c.StartProject(ctx, userID, "Payroll")
	require.NoError(t, err)
	assert.Equal(t, "Payroll", named.ProjectName)

	active, err := c.GetOrCreateActiveProject(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, named.ID, active.ID)

	_, err = c.StartProject(ctx, uuid.Nil, "x")
	assert.ErrorIs(t, err, apperrors.ErrAuthRequired)
}

func TestUploadFilesRejectsUnsupportedFiles(t *testing.T) {
	c, db := newTestController(t, nil, Options{})
	ctx := context.Background()
	userID := uuid.New()

	result, err := c.UploadFiles(ctx, userID, nil, []models.FileInput{
		{FileName: "t1.sql", Content: tableDDL},
		{FileName: "p1.sql", Content: "CREATE PROCEDURE get_customers AS SELECT * FROM customers"},
		{FileName: "x.bin", Content: "\x00\x01"},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Project)

	require.Len(t, result.Files, 2)
	assert.Equal(t, models.FileTypeTable, result.Files[0].FileType)
	assert.Equal(t, models.FileTypeProcedure, result.Files[1].FileType)
	for _, f := range result.Files {
		assert.Equal(t, models.StatusPending, f.Status())
		_, ok := f.State.ConvertedContent()
		assert.False(t, ok)
	}
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "x.bin", result.Rejected[0].FileName)
	assert.Empty(t, result.Failed)

	stored, err := db.ListFiles(ctx, userID, result.Project.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	// A second upload without a project lands in the same active project.
	again := uploadOne(t, c, userID, "t2.sql", tableDDL)
	assert.Equal(t, result.Project.ID, again.MigrationID)
}

func TestUploadFilesIntoUnknownProject(t *testing.T) {
	c, _ := newTestController(t, nil, Options{})
	missing := uuid.New()

	_, err := c.UploadFiles(context.Background(), uuid.New(), &missing, []models.FileInput{{FileName: "a.sql", Content: "x"}})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUploadFilesKeepsFolderPaths(t *testing.T) {
	c, _ := newTestController(t, nil, Options{})

	result, err := c.UploadFiles(context.Background(), uuid.New(), nil, []models.FileInput{
		{FileName: "orders.trg", FilePath: "schema/triggers/orders.trg", Content: "CREATE TRIGGER trg ON orders FOR INSERT AS SELECT 1"},
	})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "schema/triggers/orders.trg", result.Files[0].FilePath)
	assert.Equal(t, models.FileTypeTrigger, result.Files[0].FileType)
}

func TestAddFileValidation(t *testing.T) {
	c, db := newTestController(t, nil, Options{})
	ctx := context.Background()
	userID := uuid.New()
	p, err := c.StartProject(ctx, userID, "manual")
	require.NoError(t, err)

	_, err = c.AddFile(ctx, userID, p.ID, models.FileInput{FileName: " ", Content: "SELECT 1"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = c.AddFile(ctx, userID, p.ID, models.FileInput{FileName: "a.sql", Content: "\n"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	files, err := db.ListFiles(ctx, userID, p.ID)
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = c.AddFile(ctx, userID, p.ID, models.FileInput{FileName: "notes.docx", Content: tableDDL})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	files, err = db.ListFiles(ctx, userID, p.ID)
	require.NoError(t, err)
	assert.Empty(t, files)

	f, err := c.AddFile(ctx, userID, p.ID, models.FileInput{FileName: "a.sql", Content: tableDDL})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, f.Status())
}

func TestConvertFile(t *testing.T) {
	c, db := newTestController(t, nil, Options{})
	ctx := context.Background()
	userID := uuid.New()
	f := uploadOne(t, c, userID, "t1.sql", tableDDL)

	converted, err := c.ConvertFile(ctx, userID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, converted.Status())
	content, ok := converted.State.ConvertedContent()
	require.True(t, ok)
	assert.Contains(t, content, "VARCHAR2(50)")
	assert.Contains(t, content, "NUMBER(10)")
	assert.NotEmpty(t, converted.DataTypeMapping)

	stored, err := db.GetFile(ctx, userID, f.ID)
	require.NoError(t, err)
	storedContent, _ := stored.State.ConvertedContent()
	assert.Equal(t, content, storedContent)
	assert.Equal(t, converted.Version, stored.Version)
}

func TestConvertFileRecordsFailure(t *testing.T) {
	conv := failingConverter("model endpoint unavailable")
	c, db := newTestController(t, conv, Options{})
	ctx := context.Background()
	userID := uuid.New()
	f := uploadOne(t, c, userID, "t1.sql", tableDDL)

	failed, err := c.ConvertFile(ctx, userID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, failed.Status())

	stored, err := db.GetFile(ctx, userID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, stored.Status())
	msg, ok := stored.State.ErrorMessage()
	require.True(t, ok)
	assert.Equal(t, "model endpoint unavailable", msg)
	_, hasContent := stored.State.ConvertedContent()
	assert.False(t, hasContent)

	// A later successful conversion overwrites the failure.
	conv.convert = func(context.Context, string) (*models.ConversionResult, error) {
		return &models.ConversionResult{ConvertedCode: "SELECT 1 FROM dual;"}, nil
	}
	retried, err := c.ConvertFile(ctx, userID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, retried.Status())
	_, hasError := retried.State.ErrorMessage()
	assert.False(t, hasError)
}

func TestConvertFileTimeout(t *testing.T) {
	c, db := newTestController(t, blockingConverter(), Options{ConversionTimeout: 50 * time.Millisecond})
	ctx := context.Background()
	userID := uuid.New()
	f := uploadOne(t, c, userID, "slow.sql", tableDDL)

	_, err := c.ConvertFile(ctx, userID, f.ID)
	require.NoError(t, err)

	stored, err := db.GetFile(ctx, userID, f.ID)
	require.NoError(t, err)
	msg, ok := stored.State.ErrorMessage()
	require.True(t, ok)
	assert.Equal(t, "conversion timed out after 50ms", msg)
}

func TestConvertFileRecoversFromPanic(t *testing.T) {
	conv := &fakeConverter{convert: func(context.Context, string) (*models.ConversionResult, error) {
		panic("unexpected token")
	}}
	c, _ := newTestController(t, conv, Options{})
	userID := uuid.New()
	f := uploadOne(t, c, userID, "t1.sql", tableDDL)

	failed, err := c.ConvertFile(context.Background(), userID, f.ID)
	require.NoError(t, err)
	msg, ok := failed.State.ErrorMessage()
	require.True(t, ok)
	assert.Contains(t, msg, "unexpected token")
}

func TestConvertFileEmptyResultIsFailure(t *testing.T) {
	conv := &fakeConverter{convert: func(context.Context, string) (*models.ConversionResult, error) {
		return &models.ConversionResult{ConvertedCode: "  "}, nil
	}}
	c, _ := newTestController(t, conv, Options{})
	userID := uuid.New()
	f := uploadOne(t, c, userID, "t1.sql", tableDDL)

	failed, err := c.ConvertFile(context.Background(), userID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, failed.Status())
}

func TestConvertFileIsIdempotent(t *testing.T) {
	c, db := newTestController(t, nil, Options{})
	ctx := context.Background()
	userID := uuid.New()
	f := uploadOne(t, c, userID, "t1.sql", tableDDL)

	_, err := c.ConvertFile(ctx, userID, f.ID)
	require.NoError(t, err)
	once, err := db.GetFile(ctx, userID, f.ID)
	require.NoError(t, err)

	_, err = c.ConvertFile(ctx, userID, f.ID)
	require.NoError(t, err)
	twice, err := db.GetFile(ctx, userID, f.ID)
	require.NoError(t, err)

	assert.Equal(t, once.Status(), twice.Status())
	onceContent, _ := once.State.ConvertedContent()
	twiceContent, _ := twice.State.ConvertedContent()
	assert.Equal(t, onceContent, twiceContent)
	assert.Equal(t, once.Issues, twice.Issues)
	assert.Equal(t, once.DataTypeMapping, twice.DataTypeMapping)
}

func TestConcurrentConversionLosesCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	conv := &fakeConverter{}
	c, db := newTestController(t, conv, Options{})
	f := uploadOne(t, c, userID, "t1.sql", tableDDL)

	// Another writer converts the same file while this conversion runs.
	conv.convert = func(context.Context, string) (*models.ConversionResult, error) {
		other, err := db.GetFile(ctx, userID, f.ID)
		if assert.NoError(t, err) {
			other.ApplyConversion(&models.ConversionResult{ConvertedCode: "-- faster writer"})
			assert.NoError(t, db.UpdateFileState(ctx, userID, other))
		}
		return &models.ConversionResult{ConvertedCode: "-- slower writer"}, nil
	}

	_, err := c.ConvertFile(ctx, userID, f.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	stored, err := db.GetFile(ctx, userID, f.ID)
	require.NoError(t, err)
	content, _ := stored.State.ConvertedContent()
	assert.Equal(t, "-- faster writer", content)
}

func TestConvertFileRejectsDeployedFiles(t *testing.T) {
	c, db := newTestController(t, nil, Options{Deployer: &fakeDeployer{}})
	ctx := context.Background()
	userID := uuid.New()
	f := uploadOne(t, c, userID, "t1.sql", tableDDL)
	_, err := c.ConvertFile(ctx, userID, f.ID)
	require.NoError(t, err)
	_, err = c.DeployFiles(ctx, userID, f.MigrationID, []uuid.UUID{f.ID})
	require.NoError(t, err)

	_, err = c.ConvertFile(ctx, userID, f.ID)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	stored, err := db.GetFile(ctx, userID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeployed, stored.Status())
}

func TestConvertUpload(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("updates the pending record with the same name", func(t *testing.T) {
		c, db := newTestController(t, nil, Options{})
		pending := uploadOne(t, c, userID, "T1.SQL", tableDDL)

		f, err := c.ConvertUpload(ctx, userID, pending.MigrationID, models.FileInput{FileName: "t1.sql"})
		require.NoError(t, err)
		assert.Equal(t, pending.ID, f.ID)
		assert.Equal(t, models.StatusSuccess, f.Status())

		files, err := db.ListFiles(ctx, userID, pending.MigrationID)
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})

	t.Run("inserts a failed record when none exists", func(t *testing.T) {
		c, db := newTestController(t, failingConverter("provider rejected request"), Options{})
		p, err := c.StartProject(ctx, userID, "")
		require.NoError(t, err)

		f, err := c.ConvertUpload(ctx, userID, p.ID, models.FileInput{FileName: "p1.sql", Content: "CREATE PROC p AS SELECT 1"})
		require.NoError(t, err)

		stored, err := db.GetFile(ctx, userID, f.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusFailed, stored.Status())
		assert.Equal(t, models.FileTypeProcedure, stored.FileType)
	})

	t.Run("rejects unsupported names", func(t *testing.T) {
		c, _ := newTestController(t, nil, Options{})
		p, err := c.StartProject(ctx, userID, "")
		require.NoError(t, err)

		_, err = c.ConvertUpload(ctx, userID, p.ID, models.FileInput{FileName: "x.bin", Content: "SELECT 1"})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("new content replaces the pending source", func(t *testing.T) {
		c, db := newTestController(t, nil, Options{})
		pending := uploadOne(t, c, userID, "t1.sql", "CREATE TABLE old_t (a INT)")
		require.Equal(t, models.FileTypeTable, pending.FileType)

		newSource := "CREATE PROCEDURE new_p AS SELECT GETDATE()"
		f, err := c.ConvertUpload(ctx, userID, pending.MigrationID, models.FileInput{FileName: "T1.sql", Content: newSource})
		require.NoError(t, err)
		assert.Equal(t, pending.ID, f.ID)

		stored, err := db.GetFile(ctx, userID, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusSuccess, stored.Status())
		assert.Equal(t, newSource, stored.OriginalContent)
		assert.Equal(t, models.FileTypeProcedure, stored.FileType)
		converted, ok := stored.State.ConvertedContent()
		require.True(t, ok)
		assert.Contains(t, converted, "new_p")
		assert.NotContains(t, converted, "old_t")
	})

	t.Run("failed conversion of new content keeps the new source", func(t *testing.T) {
		c, db := newTestController(t, failingConverter("provider rejected request"), Options{})
		pending := uploadOne(t, c, userID, "t1.sql", "CREATE TABLE old_t (a INT)")

		newSource := "CREATE TRIGGER trg ON orders FOR INSERT AS SELECT 1"
		_, err := c.ConvertUpload(ctx, userID, pending.MigrationID, models.FileInput{FileName: "t1.sql", Content: newSource})
		require.NoError(t, err)

		stored, err := db.GetFile(ctx, userID, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusFailed, stored.Status())
		assert.Equal(t, newSource, stored.OriginalContent)
		assert.Equal(t, models.FileTypeTrigger, stored.FileType)
	})
}

func TestReviewForkLeavesFileRecordUntouched(t *testing.T) {
	c, db := newTestController(t, nil, Options{})
	ctx := context.Background()
	userID := uuid.New()
	f := uploadOne(t, c, userID, "t1.sql", tableDDL)
	converted, err := c.ConvertFile(ctx, userID, f.ID)
	require.NoError(t, err)
	original, _ := converted.State.ConvertedContent()

	u, err := c.PullIntoReview(ctx, userID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UnreviewedStatusUnreviewed, u.Status)
	assert.Equal(t, original, u.ConvertedCode)
	assert.Equal(t, original, u.AIGeneratedCode)
	assert.Equal(t, tableDDL, u.OriginalCode)

	_, err = c.EditUnreviewed(ctx, userID, u.ID, "-- edited\n"+original)
	require.NoError(t, err)

	reviewed, err := c.MarkReviewed(ctx, userID, u.ID, "-- final\n"+original, "")
	require.NoError(t, err)
	assert.Equal(t, models.UnreviewedStatusReviewed, reviewed.Status)
	assert.Equal(t, tableDDL, reviewed.OriginalCode)

	stored, err := c.GetUnreviewed(ctx, userID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "-- final\n"+original, stored.ConvertedCode)
	assert.Equal(t, original, stored.AIGeneratedCode)

	file, err := db.GetFile(ctx, userID, f.ID)
	require.NoError(t, err)
	fileContent, _ := file.State.ConvertedContent()
	assert.Equal(t, original, fileContent)
	assert.Equal(t, models.StatusSuccess, file.Status())

	_, err = c.EditUnreviewed(ctx, userID, u.ID, "again")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestPullIntoReviewRequiresConversion(t *testing.T) {
	c, _ := newTestController(t, nil, Options{})
	userID := uuid.New()
	f := uploadOne(t, c, userID, "t1.sql", tableDDL)

	_, err := c.PullIntoReview(context.Background(), userID, f.ID)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestPromoteReviewed(t *testing.T) {
	c, db := newTestController(t, nil, Options{})
	ctx := context.Background()
	userID := uuid.New()
	f := uploadOne(t, c, userID, "t1.sql", tableDDL)
	_, err := c.ConvertFile(ctx, userID, f.ID)
	require.NoError(t, err)

	t.Run("reviewed becomes success in the source project", func(t *testing.T) {
		u, err := c.PullIntoReview(ctx, userID, f.ID)
		require.NoError(t, err)
		_, err = c.MarkReviewed(ctx, userID, u.ID, "CREATE TABLE customers (id NUMBER(10));", "")
		require.NoError(t, err)

		promoted, err := c.PromoteReviewed(ctx, userID, u.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, f.MigrationID, promoted.MigrationID)
		assert.Equal(t, models.StatusSuccess, promoted.Status())
		assert.Equal(t, "CREATE TABLE customers (id NUMBER(10));", promoted.ExportContent())

		_, err = c.GetUnreviewed(ctx, userID, u.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("unreviewed becomes pending_review until approved", func(t *testing.T) {
		u, err := c.PullIntoReview(ctx, userID, f.ID)
		require.NoError(t, err)

		promoted, err := c.PromoteReviewed(ctx, userID, u.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPendingReview, promoted.Status())

		_, err = c.ConvertFile(ctx, userID, promoted.ID)
		assert.ErrorIs(t, err, apperrors.ErrValidation)

		approved, err := c.ApproveFile(ctx, userID, promoted.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusSuccess, approved.Status())

		_, err = c.ApproveFile(ctx, userID, promoted.ID)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	// The original record and both promotions share one name, so the
	// project view shows a single successful file.
	files, err := c.ListFilesForProject(ctx, userID, f.MigrationID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, models.StatusSuccess, files[0].Status())

	all, err := db.ListFiles(ctx, userID, f.MigrationID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestListUnreviewedFilters(t *testing.T) {
	c, _ := newTestController(t, nil, Options{})
	ctx := context.Background()
	userID := uuid.New()

	var ids []uuid.UUID
	for _, name := range []string{"Orders.sql", "customers.sql", "order_items.sql"} {
		f := uploadOne(t, c, userID, name, tableDDL)
		_, err := c.ConvertFile(ctx, userID, f.ID)
		require.NoError(t, err)
		u, err := c.PullIntoReview(ctx, userID, f.ID)
		require.NoError(t, err)
		ids = append(ids, u.ID)
	}
	_, err := c.MarkReviewed(ctx, userID, ids[2], "SELECT 1 FROM dual;", "")
	require.NoError(t, err)

	matched, err := c.ListUnreviewed(ctx, userID, models.UnreviewedFilter{Search: " ORDER "})
	require.NoError(t, err)
	assert.Len(t, matched, 2)

	reviewed, err := c.ListUnreviewed(ctx, userID, models.UnreviewedFilter{Search: "order", Status: models.UnreviewedStatusReviewed})
	require.NoError(t, err)
	require.Len(t, reviewed, 1)
	assert.Equal(t, "order_items.sql", reviewed[0].FileName)

	_, err = c.ListUnreviewed(ctx, userID, models.UnreviewedFilter{Status: "archived"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	require.NoError(t, c.DeleteUnreviewed(ctx, userID, ids[0]))
	assert.ErrorIs(t, c.DeleteUnreviewed(ctx, userID, ids[0]), apperrors.ErrNotFound)
}

func TestListHistoryHidesPendingOnlyProjects(t *testing.T) {
	c, _ := newTestController(t, nil, Options{})
	ctx := context.Background()
	userID := uuid.New()

	converted, err := c.StartProject(ctx, userID, "converted")
	require.NoError(t, err)
	f, err := c.AddFile(ctx, userID, converted.ID, models.FileInput{FileName: "a.sql", Content: tableDDL})
	require.NoError(t, err)
	_, err = c.ConvertFile(ctx, userID, f.ID)
	require.NoError(t, err)

	pending, err := c.StartProject(ctx, userID, "in progress")
	require.NoError(t, err)
	_, err = c.AddFile(ctx, userID, pending.ID, models.FileInput{FileName: "b.sql", Content: tableDDL})
	require.NoError(t, err)

	all, err := c.ListProjects(ctx, userID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, pending.ID, all[0].Project.ID)
	assert.Equal(t, 1, all[0].Summary.PendingCount)

	history, err := c.ListHistory(ctx, userID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, converted.ID, history[0].Project.ID)
	assert.Equal(t, 1, history[0].Summary.SuccessCount)

	summary, err := c.ProjectSummary(ctx, userID, pending.ID)
	require.NoError(t, err)
	assert.False(t, summary.HasConvertedFiles)
}

func TestClearAllHistoryOnlyAffectsCaller(t *testing.T) {
	c, db := newTestController(t, nil, Options{})
	ctx := context.Background()
	userID, otherID := uuid.New(), uuid.New()

	for i, name := range []string{"one", "two"} {
		p, err := c.StartProject(ctx, userID, name)
		require.NoError(t, err)
		for j := 0; j < 2+i; j++ {
			_, err := c.AddFile(ctx, userID, p.ID, models.FileInput{FileName: name + string(rune('a'+j)) + ".sql", Content: tableDDL})
			require.NoError(t, err)
		}
	}
	for i := 0; i < 3; i++ {
		_, err := c.RecordDeployment(ctx, userID, models.RecordDeploymentRequest{Status: models.DeploymentSuccess, FileCount: 1})
		require.NoError(t, err)
	}
	before, err := db.ListAllFiles(ctx, userID)
	require.NoError(t, err)
	require.Len(t, before, 5)

	other := uploadOne(t, c, otherID, "keep.sql", tableDDL)
	_, err = c.RecordDeployment(ctx, otherID, models.RecordDeploymentRequest{Status: models.DeploymentFailed})
	require.NoError(t, err)

	require.NoError(t, c.ClearAllHistory(ctx, userID))

	projects, err := c.ListProjects(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, projects)
	files, err := db.ListAllFiles(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, files)
	logs, err := c.ListDeployments(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, logs)

	kept, err := c.GetFile(ctx, otherID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep.sql", kept.FileName)
	otherLogs, err := c.ListDeployments(ctx, otherID)
	require.NoError(t, err)
	assert.Len(t, otherLogs, 1)
}

func TestDeployFiles(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("success moves files to deployed", func(t *testing.T) {
		deployer := &fakeDeployer{}
		c, db := newTestController(t, nil, Options{Deployer: deployer})
		f := uploadOne(t, c, userID, "t1.sql", tableDDL)
		_, err := c.ConvertFile(ctx, userID, f.ID)
		require.NoError(t, err)

		result, err := c.DeployFiles(ctx, userID, f.MigrationID, []uuid.UUID{f.ID, f.ID})
		require.NoError(t, err)
		assert.Equal(t, models.DeploymentSuccess, result.Log.Status)
		assert.Equal(t, 1, result.Log.FileCount)
		assert.Equal(t, 1, result.Log.LinesOfSQL)
		require.Len(t, deployer.scripts, 1)
		assert.Equal(t, "t1.sql", deployer.scripts[0].Name)

		stored, err := db.GetFile(ctx, userID, f.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDeployed, stored.Status())
		_, ok := stored.State.DeploymentTimestamp()
		assert.True(t, ok)

		summary, err := c.ProjectSummary(ctx, userID, f.MigrationID)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.DeployedCount)
		assert.True(t, summary.HasConvertedFiles)
	})

	t.Run("failure keeps files in success", func(t *testing.T) {
		deployer := &fakeDeployer{err: errors.New("ORA-00942: table or view does not exist")}
		c, db := newTestController(t, nil, Options{Deployer: deployer})
		f := uploadOne(t, c, userID, "t1.sql", tableDDL)
		_, err := c.ConvertFile(ctx, userID, f.ID)
		require.NoError(t, err)

		result, err := c.DeployFiles(ctx, userID, f.MigrationID, []uuid.UUID{f.ID})
		require.NoError(t, err)
		assert.Equal(t, models.DeploymentFailed, result.Log.Status)
		assert.Contains(t, result.Log.ErrorMessage.String, "ORA-00942")
		assert.Empty(t, result.Files)

		stored, err := db.GetFile(ctx, userID, f.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusSuccess, stored.Status())

		logs, err := c.ListDeployments(ctx, userID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, models.DeploymentFailed, logs[0].Status)
	})

	t.Run("reconversion during the deployment", func(t *testing.T) {
		deployer := &fakeDeployer{}
		c, db := newTestController(t, nil, Options{Deployer: deployer})
		f := uploadOne(t, c, userID, "t1.sql", tableDDL)
		_, err := c.ConvertFile(ctx, userID, f.ID)
		require.NoError(t, err)
		deployer.during = func() {
			_, err := c.ConvertFile(ctx, userID, f.ID)
			require.NoError(t, err)
		}

		result, err := c.DeployFiles(ctx, userID, f.MigrationID, []uuid.UUID{f.ID})
		assert.ErrorIs(t, err, apperrors.ErrConflict)
		require.NotNil(t, result)
		assert.Equal(t, models.DeploymentSuccess, result.Log.Status)
		assert.Contains(t, result.Log.ErrorMessage.String, "not marked deployed")
		assert.Empty(t, result.Files)

		stored, err := db.GetFile(ctx, userID, f.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusSuccess, stored.Status())

		logs, err := c.ListDeployments(ctx, userID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, result.Log.ID, logs[0].ID)
		assert.Equal(t, models.DeploymentSuccess, logs[0].Status)
	})

	t.Run("only converted files", func(t *testing.T) {
		c, _ := newTestController(t, nil, Options{Deployer: &fakeDeployer{}})
		f := uploadOne(t, c, userID, "t1.sql", tableDDL)

		_, err := c.DeployFiles(ctx, userID, f.MigrationID, []uuid.UUID{f.ID})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("no target", func(t *testing.T) {
		c, _ := newTestController(t, nil, Options{})
		_, err := c.DeployFiles(ctx, userID, uuid.New(), []uuid.UUID{uuid.New()})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestRecordedFailedDeploymentKeepsFileStatus(t *testing.T) {
	c, db := newTestController(t, nil, Options{})
	ctx := context.Background()
	userID := uuid.New()
	f := uploadOne(t, c, userID, "t1.sql", tableDDL)
	_, err := c.ConvertFile(ctx, userID, f.ID)
	require.NoError(t, err)

	msg := "connection refused"
	log, err := c.RecordDeployment(ctx, userID, models.RecordDeploymentRequest{
		Status:       models.DeploymentFailed,
		FileCount:    1,
		LinesOfSQL:   4,
		ErrorMessage: &msg,
		MigrationID:  &f.MigrationID,
	})
	require.NoError(t, err)
	assert.Equal(t, f.MigrationID, log.MigrationID.UUID)

	stored, err := db.GetFile(ctx, userID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, stored.Status())

	_, err = c.RecordDeployment(ctx, userID, models.RecordDeploymentRequest{Status: "Partial"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestExportAndArchive(t *testing.T) {
	archiver := &fakeArchiver{}
	c, _ := newTestController(t, nil, Options{Archiver: archiver})
	ctx := context.Background()
	userID := uuid.New()
	f := uploadOne(t, c, userID, "t1.sql", tableDDL)

	name, content, err := c.ExportFile(ctx, userID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "t1.sql", name)
	assert.Equal(t, tableDDL, content)

	converted, err := c.ConvertFile(ctx, userID, f.ID)
	require.NoError(t, err)
	_, content, err = c.ExportFile(ctx, userID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, converted.ExportContent(), content)

	export, err := c.ArchiveExport(ctx, userID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "t1.sql", export.FileName)
	assert.Contains(t, export.StorageURL, "/projects/"+f.MigrationID.String()+"/t1.sql")
	assert.Len(t, archiver.archived, 1)

	// Failing to clean up archived exports does not fail the delete.
	require.NoError(t, c.DeleteProject(ctx, userID, f.MigrationID))
	assert.Equal(t, []uuid.UUID{f.MigrationID}, archiver.removed)
	_, err = c.GetFile(ctx, userID, f.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestArchiveWithoutStorage(t *testing.T) {
	c, _ := newTestController(t, nil, Options{})
	userID := uuid.New()
	f := uploadOne(t, c, userID, "t1.sql", tableDDL)

	_, err := c.ArchiveExport(context.Background(), userID, f.ID)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRenameProject(t *testing.T) {
	c, _ := newTestController(t, nil, Options{})
	ctx := context.Background()
	userID := uuid.New()
	p, err := c.StartProject(ctx, userID, "draft")
	require.NoError(t, err)

	renamed, err := c.RenameProject(ctx, userID, p.ID, " Final ")
	require.NoError(t, err)
	assert.Equal(t, "Final", renamed.ProjectName)

	_, err = c.RenameProject(ctx, userID, p.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = c.RenameProject(ctx, uuid.New(), p.ID, "stolen")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEventsAreBestEffort(t *testing.T) {
	events := &recordingPublisher{err: errors.New("realtime unavailable")}
	c, _ := newTestController(t, nil, Options{Events: events})
	ctx := context.Background()
	userID := uuid.New()

	f := uploadOne(t, c, userID, "t1.sql", tableDDL)
	_, err := c.ConvertFile(ctx, userID, f.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"project.created", "project.files_uploaded", "file.converted"}, events.names())
	last := events.events[len(events.events)-1]
	assert.Equal(t, userID, last.UserID)
	assert.Equal(t, f.ID, last.EntityID)
	assert.Equal(t, "success", last.Payload["status"])
}
