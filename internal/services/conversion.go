package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/apperrors"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/logging"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
)

type conversionOutcome struct {
	result *models.ConversionResult
	err    error
}

// runConversion calls the converter under the conversion timeout. A failed,
// timed out or panicking conversion comes back as a non-empty failure
// message. err is only set when the caller's own context ended, in which
// case nothing should be recorded.
func (c *Controller) runConversion(ctx context.Context, source string) (*models.ConversionResult, string, error) {
	convCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan conversionOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- conversionOutcome{err: fmt.Errorf("converter panicked: %v", r)}
			}
		}()
		result, err := c.converter.Convert(convCtx, source)
		done <- conversionOutcome{result: result, err: err}
	}()

	var out conversionOutcome
	select {
	case out = <-done:
	case <-convCtx.Done():
		out.err = convCtx.Err()
	}

	if ctx.Err() != nil {
		return nil, "", ctx.Err()
	}
	if errors.Is(convCtx.Err(), context.DeadlineExceeded) && out.err != nil {
		return nil, fmt.Sprintf("conversion timed out after %s", c.timeout), nil
	}
	if out.err != nil {
		return nil, out.err.Error(), nil
	}
	if out.result == nil || strings.TrimSpace(out.result.ConvertedCode) == "" {
		return nil, "conversion returned no converted code", nil
	}
	return out.result, "", nil
}

func (c *Controller) applyOutcome(f *models.FileRecord, result *models.ConversionResult, failure string) {
	if failure != "" {
		f.ApplyFailure(failure)
		return
	}
	f.ApplyConversion(result)
}

// ConvertFile runs the converter on a file's original content and records
// the outcome. A conversion failure is stored on the record as failed state
// and is not returned as an error. Converting again overwrites the previous
// outcome. The write is a compare-and-swap on the record version, so of two
// overlapping conversions of the same file the slower one gets a Conflict.
func (c *Controller) ConvertFile(ctx context.Context, userID, fileID uuid.UUID) (*models.FileRecord, error) {
	f, err := c.store.GetFile(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}
	if !f.State.CanTransitionTo(models.StatusFailed) {
		return nil, apperrors.Validation(fmt.Sprintf("a file in status %s cannot be converted", f.Status()))
	}

	start := time.Now()
	result, failure, err := c.runConversion(ctx, f.OriginalContent)
	if err != nil {
		return nil, err
	}
	c.applyOutcome(f, result, failure)

	if err := c.store.UpdateFileState(ctx, userID, f); err != nil {
		c.logger.Error("Failed to record conversion",
			zap.String("file_id", f.ID.String()),
			zap.String("project_id", f.MigrationID.String()),
			zap.Error(err))
		return nil, err
	}

	c.logConversion(f, failure, time.Since(start))
	c.publishConversion(ctx, userID, f)
	return f, nil
}

// ConvertUpload converts a named input for a project. A pending record with
// the same case-insensitive name is updated in place, taking the new content
// and its file type along with the outcome; without one the record is
// inserted directly in its final state so failures are never dropped.
func (c *Controller) ConvertUpload(ctx context.Context, userID, projectID uuid.UUID, in models.FileInput) (*models.FileRecord, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.FileName) == "" {
		return nil, apperrors.Validation("file name is required")
	}
	if !models.IsSupportedFile(in.FileName) {
		return nil, apperrors.Validation(fmt.Sprintf("unsupported file type: %s", in.FileName))
	}
	if _, err := c.store.GetProject(ctx, userID, projectID); err != nil {
		return nil, err
	}

	existing, err := c.store.FindPendingFileByName(ctx, userID, projectID, in.FileName)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	source := in.Content
	if existing != nil && strings.TrimSpace(source) == "" {
		source = existing.OriginalContent
	}
	if strings.TrimSpace(source) == "" {
		return nil, apperrors.Validation("file content is required")
	}

	start := time.Now()
	result, failure, err := c.runConversion(ctx, source)
	if err != nil {
		return nil, err
	}

	f := existing
	if f != nil {
		if source != f.OriginalContent {
			f.OriginalContent = source
			f.FileType = models.DetectFileType(source)
		}
		c.applyOutcome(f, result, failure)
		err = c.store.UpdateFileState(ctx, userID, f)
	} else {
		f = c.newFileRecord(projectID, in, models.PendingState())
		c.applyOutcome(f, result, failure)
		err = c.store.CreateFile(ctx, userID, f)
	}
	if err != nil {
		c.logger.Error("Failed to record conversion",
			zap.String("project_id", projectID.String()),
			zap.String("file_name", in.FileName),
			zap.Error(err))
		return nil, err
	}

	c.logConversion(f, failure, time.Since(start))
	c.publishConversion(ctx, userID, f)
	return f, nil
}

// ApproveFile accepts a promoted, not yet reviewed file as a successful
// conversion.
func (c *Controller) ApproveFile(ctx context.Context, userID, fileID uuid.UUID) (*models.FileRecord, error) {
	f, err := c.store.GetFile(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}
	if f.Status() != models.StatusPendingReview {
		return nil, apperrors.Validation(fmt.Sprintf("only files pending review can be approved, file is %s", f.Status()))
	}

	converted, _ := f.State.ConvertedContent()
	f.State = models.SucceededState(converted)
	if err := c.store.UpdateFileState(ctx, userID, f); err != nil {
		return nil, err
	}

	c.logger.Info("File approved",
		zap.String("file_id", f.ID.String()),
		zap.String("project_id", f.MigrationID.String()),
		zap.String("status", string(f.Status())))
	c.publish(ctx, userID, models.EntityFile, f.ID, "approved", map[string]any{
		"project_id": f.MigrationID.String(),
	})
	return f, nil
}

func (c *Controller) logConversion(f *models.FileRecord, failure string, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("file_id", f.ID.String()),
		zap.String("project_id", f.MigrationID.String()),
		zap.String("status", string(f.Status())),
		zap.String("converter", c.converter.Name()),
		zap.Duration("elapsed", elapsed),
	}
	if failure != "" {
		c.logger.Info("Conversion failed", append(fields,
			zap.String("error", logging.TruncateString(failure, logging.MaxContentLogLength)))...)
		return
	}
	c.logger.Info("Conversion succeeded", append(fields, zap.Int("issues", len(f.Issues)))...)
}

func (c *Controller) publishConversion(ctx context.Context, userID uuid.UUID, f *models.FileRecord) {
	payload := map[string]any{
		"project_id": f.MigrationID.String(),
		"file_name":  f.FileName,
		"status":     string(f.Status()),
	}
	if msg, ok := f.State.ErrorMessage(); ok {
		payload["error_message"] = msg
	}
	c.publish(ctx, userID, models.EntityFile, f.ID, "converted", payload)
}
