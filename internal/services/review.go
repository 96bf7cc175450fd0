package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/apperrors"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
)

// PullIntoReview copies a converted file into the staging area. The file
// record itself is left untouched until the staging copy is promoted.
func (c *Controller) PullIntoReview(ctx context.Context, userID, fileID uuid.UUID) (*models.UnreviewedFile, error) {
	f, err := c.store.GetFile(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}
	if f.Status() == models.StatusPending {
		return nil, apperrors.Validation("file has not been converted yet")
	}

	converted, _ := f.State.ConvertedContent()
	now := c.now()
	u := &models.UnreviewedFile{
		ID:                 uuid.New(),
		UserID:             userID,
		SourceFileID:       uuid.NullUUID{UUID: f.ID, Valid: true},
		FileName:           f.FileName,
		OriginalCode:       f.OriginalContent,
		ConvertedCode:      converted,
		AIGeneratedCode:    converted,
		Status:             models.UnreviewedStatusUnreviewed,
		DataTypeMapping:    f.DataTypeMapping,
		Issues:             f.Issues,
		PerformanceMetrics: f.PerformanceMetrics,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := c.store.CreateUnreviewed(ctx, u); err != nil {
		return nil, err
	}

	c.logger.Info("File pulled into review",
		zap.String("file_id", f.ID.String()),
		zap.String("unreviewed_id", u.ID.String()),
		zap.String("project_id", f.MigrationID.String()))
	c.publish(ctx, userID, models.EntityUnreviewed, u.ID, "created", map[string]any{
		"source_file_id": f.ID.String(),
		"file_name":      u.FileName,
	})
	return u, nil
}

func (c *Controller) GetUnreviewed(ctx context.Context, userID, id uuid.UUID) (*models.UnreviewedFile, error) {
	return c.store.GetUnreviewed(ctx, userID, id)
}

func (c *Controller) ListUnreviewed(ctx context.Context, userID uuid.UUID, filter models.UnreviewedFilter) ([]models.UnreviewedFile, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.Validation("status must be unreviewed or reviewed")
	}
	filter.Search = strings.TrimSpace(filter.Search)
	return c.store.ListUnreviewed(ctx, userID, filter)
}

// EditUnreviewed replaces the working copy of a staging file. Reviewed files
// are final and cannot be edited.
func (c *Controller) EditUnreviewed(ctx context.Context, userID, id uuid.UUID, convertedCode string) (*models.UnreviewedFile, error) {
	u, err := c.store.GetUnreviewed(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if u.Status == models.UnreviewedStatusReviewed {
		return nil, apperrors.Validation("reviewed files cannot be edited")
	}

	u.ConvertedCode = convertedCode
	if err := c.store.UpdateUnreviewed(ctx, u); err != nil {
		return nil, err
	}

	c.publish(ctx, userID, models.EntityUnreviewed, u.ID, "edited", nil)
	return u, nil
}

// MarkReviewed stores the final code and flags the staging file as reviewed.
// It does not touch the file record; see PromoteReviewed. An empty
// finalOriginal keeps the current original code.
func (c *Controller) MarkReviewed(ctx context.Context, userID, id uuid.UUID, finalCode, finalOriginal string) (*models.UnreviewedFile, error) {
	u, err := c.store.GetUnreviewed(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(finalCode) == "" {
		return nil, apperrors.Validation("converted code is required")
	}

	u.ConvertedCode = finalCode
	if finalOriginal != "" {
		u.OriginalCode = finalOriginal
	}
	u.Status = models.UnreviewedStatusReviewed
	if err := c.store.UpdateUnreviewed(ctx, u); err != nil {
		return nil, err
	}

	c.logger.Info("File marked reviewed", zap.String("unreviewed_id", u.ID.String()))
	c.publish(ctx, userID, models.EntityUnreviewed, u.ID, "reviewed", nil)
	return u, nil
}

func (c *Controller) DeleteUnreviewed(ctx context.Context, userID, id uuid.UUID) error {
	if err := c.store.DeleteUnreviewed(ctx, userID, id); err != nil {
		return err
	}
	c.publish(ctx, userID, models.EntityUnreviewed, id, "deleted", nil)
	return nil
}

// PromoteReviewed completes the review of a staging file: it becomes a new
// file record and the staging row is removed, both in one transaction. A
// reviewed file is promoted as success, an unreviewed one as pending_review.
//
// The target project is projectID when given, else the project of the file
// it was pulled from, else the active project.
func (c *Controller) PromoteReviewed(ctx context.Context, userID, id uuid.UUID, projectID *uuid.UUID) (*models.FileRecord, error) {
	u, err := c.store.GetUnreviewed(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(u.ConvertedCode) == "" {
		return nil, apperrors.Validation("converted code is empty")
	}

	target, err := c.promotionTarget(ctx, userID, u, projectID)
	if err != nil {
		return nil, err
	}

	state := models.PendingReviewState(u.ConvertedCode)
	if u.Status == models.UnreviewedStatusReviewed {
		state = models.SucceededState(u.ConvertedCode)
	}

	f := c.newFileRecord(target, models.FileInput{FileName: u.FileName, Content: u.OriginalCode}, state)
	f.DataTypeMapping = u.DataTypeMapping
	f.Issues = u.Issues
	f.PerformanceMetrics = u.PerformanceMetrics

	if err := c.store.PromoteUnreviewed(ctx, userID, u.ID, f); err != nil {
		return nil, err
	}

	c.logger.Info("Reviewed file promoted",
		zap.String("unreviewed_id", u.ID.String()),
		zap.String("file_id", f.ID.String()),
		zap.String("project_id", target.String()),
		zap.String("status", string(f.Status())))
	c.publish(ctx, userID, models.EntityFile, f.ID, "promoted", map[string]any{
		"project_id":    target.String(),
		"unreviewed_id": u.ID.String(),
		"status":        string(f.Status()),
	})
	return f, nil
}

func (c *Controller) promotionTarget(ctx context.Context, userID uuid.UUID, u *models.UnreviewedFile, projectID *uuid.UUID) (uuid.UUID, error) {
	if projectID != nil {
		return *projectID, nil
	}
	if u.SourceFileID.Valid {
		source, err := c.store.GetFile(ctx, userID, u.SourceFileID.UUID)
		if err == nil {
			return source.MigrationID, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return uuid.Nil, err
		}
	}
	project, err := c.GetOrCreateActiveProject(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	return project.ID, nil
}
