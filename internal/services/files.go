package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/apperrors"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
)

// UploadResult reports what happened to each file of an upload batch.
type UploadResult struct {
	Project  *models.MigrationProject
	Files    []models.FileRecord
	Rejected []models.UploadFailure
	Failed   []models.UploadFailure
}

func (c *Controller) newFileRecord(projectID uuid.UUID, in models.FileInput, state models.FileState) *models.FileRecord {
	now := c.now()
	filePath := in.FilePath
	if filePath == "" {
		filePath = in.FileName
	}
	return &models.FileRecord{
		ID:              uuid.New(),
		MigrationID:     projectID,
		FileName:        in.FileName,
		FilePath:        filePath,
		FileType:        models.DetectFileType(in.Content),
		OriginalContent: in.Content,
		State:           state,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// UploadFiles stores each supported input as a pending file record. With a
// nil projectID the user's active project is used, or created. Files are
// inserted one at a time: a failed insert is reported in the result and does
// not undo the others.
func (c *Controller) UploadFiles(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID, inputs []models.FileInput) (*UploadResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, apperrors.Validation("no files to upload")
	}

	var (
		project *models.MigrationProject
		err     error
	)
	if projectID != nil {
		project, err = c.store.GetProject(ctx, userID, *projectID)
	} else {
		project, err = c.GetOrCreateActiveProject(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	result := &UploadResult{Project: project}
	for _, in := range inputs {
		switch {
		case strings.TrimSpace(in.FileName) == "":
			result.Rejected = append(result.Rejected, models.UploadFailure{FileName: in.FileName, Reason: "file name is required"})
			continue
		case !models.IsSupportedFile(in.FileName):
			result.Rejected = append(result.Rejected, models.UploadFailure{FileName: in.FileName, Reason: "unsupported file type"})
			continue
		}

		f := c.newFileRecord(project.ID, in, models.PendingState())
		if err := c.store.CreateFile(ctx, userID, f); err != nil {
			c.logger.Error("Failed to store uploaded file",
				zap.String("project_id", project.ID.String()),
				zap.String("file_name", in.FileName),
				zap.Error(err))
			result.Failed = append(result.Failed, models.UploadFailure{FileName: in.FileName, Reason: err.Error()})
			continue
		}
		result.Files = append(result.Files, *f)
	}

	c.logger.Info("Files uploaded",
		zap.String("project_id", project.ID.String()),
		zap.Int("stored", len(result.Files)),
		zap.Int("rejected", len(result.Rejected)),
		zap.Int("failed", len(result.Failed)))
	if len(result.Files) > 0 {
		c.publish(ctx, userID, models.EntityProject, project.ID, "files_uploaded", map[string]any{
			"file_count": len(result.Files),
		})
	}
	return result, nil
}

// AddFile stores a single pasted file as a pending record.
func (c *Controller) AddFile(ctx context.Context, userID, projectID uuid.UUID, in models.FileInput) (*models.FileRecord, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.FileName) == "" {
		return nil, apperrors.Validation("file name is required")
	}
	if !models.IsSupportedFile(in.FileName) {
		return nil, apperrors.Validation(fmt.Sprintf("unsupported file type: %s", in.FileName))
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, apperrors.Validation("file content is required")
	}

	f := c.newFileRecord(projectID, in, models.PendingState())
	if err := c.store.CreateFile(ctx, userID, f); err != nil {
		return nil, err
	}

	c.logger.Info("File added",
		zap.String("file_id", f.ID.String()),
		zap.String("project_id", projectID.String()),
		zap.String("status", string(f.Status())))
	c.publish(ctx, userID, models.EntityFile, f.ID, "uploaded", map[string]any{
		"project_id": projectID.String(),
		"file_name":  f.FileName,
	})
	return f, nil
}

// ListFilesForProject returns the project's files with repeated uploads of
// the same name collapsed by DedupeFiles.
func (c *Controller) ListFilesForProject(ctx context.Context, userID, projectID uuid.UUID) ([]models.FileRecord, error) {
	files, err := c.store.ListFiles(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	return DedupeFiles(files), nil
}

func (c *Controller) GetFile(ctx context.Context, userID, fileID uuid.UUID) (*models.FileRecord, error) {
	return c.store.GetFile(ctx, userID, fileID)
}

func (c *Controller) DeleteFile(ctx context.Context, userID, fileID uuid.UUID) error {
	if err := c.store.DeleteFile(ctx, userID, fileID); err != nil {
		return err
	}
	c.logger.Info("File deleted", zap.String("file_id", fileID.String()))
	c.publish(ctx, userID, models.EntityFile, fileID, "deleted", nil)
	return nil
}

// ExportFile returns the download name and text of a file: the converted SQL
// when there is any, the original source otherwise.
func (c *Controller) ExportFile(ctx context.Context, userID, fileID uuid.UUID) (string, string, error) {
	f, err := c.store.GetFile(ctx, userID, fileID)
	if err != nil {
		return "", "", err
	}
	return f.FileName, f.ExportContent(), nil
}

// ArchiveExport uploads the exported text to object storage and returns its
// public URL.
func (c *Controller) ArchiveExport(ctx context.Context, userID, fileID uuid.UUID) (*models.ExportResponse, error) {
	if c.archiver == nil {
		return nil, apperrors.Validation("export archiving is not configured")
	}
	f, err := c.store.GetFile(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}

	url, err := c.archiver.Archive(ctx, userID, f.MigrationID, f.FileName, []byte(f.ExportContent()))
	if err != nil {
		return nil, apperrors.Storage("archive export", err)
	}

	c.logger.Info("Export archived",
		zap.String("file_id", f.ID.String()),
		zap.String("project_id", f.MigrationID.String()))
	c.publish(ctx, userID, models.EntityFile, f.ID, "archived", map[string]any{
		"storage_url": url,
	})
	return &models.ExportResponse{FileName: f.FileName, StorageURL: url}, nil
}
