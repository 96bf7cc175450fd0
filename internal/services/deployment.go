package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/apperrors"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/deploy"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/logging"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
)

// DeployResult is the log entry of a deployment and, when it succeeded, the
// files moved to deployed.
type DeployResult struct {
	Log   *models.DeploymentLog
	Files []models.FileRecord
}

// RecordDeployment appends a deployment log written by an external deploy.
func (c *Controller) RecordDeployment(ctx context.Context, userID uuid.UUID, req models.RecordDeploymentRequest) (*models.DeploymentLog, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if !req.Status.Valid() {
		return nil, apperrors.Validation("status must be Success or Failed")
	}
	if req.FileCount < 0 || req.LinesOfSQL < 0 {
		return nil, apperrors.Validation("file_count and lines_of_sql must not be negative")
	}

	log := &models.DeploymentLog{
		ID:         uuid.New(),
		UserID:     userID,
		Status:     req.Status,
		FileCount:  req.FileCount,
		LinesOfSQL: req.LinesOfSQL,
		CreatedAt:  c.now(),
	}
	if req.MigrationID != nil {
		log.MigrationID = uuid.NullUUID{UUID: *req.MigrationID, Valid: true}
	}
	if req.ErrorMessage != nil {
		log.ErrorMessage = sql.NullString{String: *req.ErrorMessage, Valid: true}
	}
	if err := c.store.CreateDeploymentLog(ctx, log); err != nil {
		return nil, err
	}

	c.publish(ctx, userID, models.EntityDeployment, log.ID, "recorded", map[string]any{
		"status": string(log.Status),
	})
	return log, nil
}

func (c *Controller) ListDeployments(ctx context.Context, userID uuid.UUID) ([]models.DeploymentLog, error) {
	return c.store.ListDeploymentLogs(ctx, userID)
}

// DeployFiles runs the converted SQL of successfully converted files against
// the deployment target as one unit and logs the attempt. The files move to
// deployed only when the target accepted every script; a failed deployment
// leaves them in success and is reported through the log. When the error
// comes after the target accepted the scripts, the result is returned with
// it so the caller still sees the written log.
func (c *Controller) DeployFiles(ctx context.Context, userID, projectID uuid.UUID, fileIDs []uuid.UUID) (*DeployResult, error) {
	if c.deployer == nil {
		return nil, apperrors.Validation("no deployment target configured")
	}
	if len(fileIDs) == 0 {
		return nil, apperrors.Validation("no files selected for deployment")
	}
	if _, err := c.store.GetProject(ctx, userID, projectID); err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool, len(fileIDs))
	files := make([]*models.FileRecord, 0, len(fileIDs))
	scripts := make([]deploy.Script, 0, len(fileIDs))
	for _, id := range fileIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		f, err := c.store.GetFile(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		if f.MigrationID != projectID {
			return nil, apperrors.NotFound("file")
		}
		if f.Status() != models.StatusSuccess {
			return nil, apperrors.Validation(fmt.Sprintf(
				"%s is %s; only successfully converted files can be deployed", f.FileName, f.Status()))
		}
		converted, _ := f.State.ConvertedContent()
		files = append(files, f)
		scripts = append(scripts, deploy.Script{Name: f.FileName, SQL: converted})
	}

	sqlTexts := make([]string, len(scripts))
	for i, s := range scripts {
		sqlTexts[i] = s.SQL
	}

	deployErr := c.deployer.Deploy(ctx, scripts)

	log := &models.DeploymentLog{
		ID:          uuid.New(),
		UserID:      userID,
		MigrationID: uuid.NullUUID{UUID: projectID, Valid: true},
		Status:      models.DeploymentSuccess,
		FileCount:   len(scripts),
		LinesOfSQL:  deploy.CountLines(sqlTexts...),
		CreatedAt:   c.now(),
	}
	if deployErr != nil {
		log.Status = models.DeploymentFailed
		log.ErrorMessage = sql.NullString{String: logging.SanitizeError(deployErr), Valid: true}
	}

	result := &DeployResult{Log: log}
	switch {
	case deployErr != nil:
		if err := c.store.CreateDeploymentLog(ctx, log); err != nil {
			return nil, err
		}
	default:
		if err := c.completeDeployment(ctx, log, files); err != nil {
			return result, err
		}
		for _, f := range files {
			result.Files = append(result.Files, *f)
		}
	}

	c.logger.Info("Deployment finished",
		zap.String("project_id", projectID.String()),
		zap.String("deployment_id", log.ID.String()),
		zap.String("status", string(log.Status)),
		zap.Int("files", log.FileCount),
		zap.Int("lines_of_sql", log.LinesOfSQL))
	c.publish(ctx, userID, models.EntityDeployment, log.ID, "deployed", map[string]any{
		"project_id": projectID.String(),
		"status":     string(log.Status),
		"file_count": log.FileCount,
	})
	return result, nil
}

// completeDeployment stores a successful deployment's log and moves its files
// to deployed in one write. When the files cannot be moved, for example
// because one was reconverted while the deployment ran, the scripts are
// already on the target: the log is still written, as Success with a note
// that the file records were left unchanged, and the error is returned.
func (c *Controller) completeDeployment(ctx context.Context, log *models.DeploymentLog, files []*models.FileRecord) error {
	deployedAt := c.now()
	states := make([]models.FileState, len(files))
	for i, f := range files {
		states[i] = f.State
		converted, _ := f.State.ConvertedContent()
		f.State = models.DeployedState(converted, deployedAt)
	}

	err := c.store.CompleteDeployment(ctx, log, files)
	if err == nil {
		return nil
	}
	for i, f := range files {
		f.State = states[i]
	}

	c.logger.Error("Deployment applied but files could not be marked deployed",
		zap.String("project_id", log.MigrationID.UUID.String()),
		zap.String("deployment_id", log.ID.String()),
		zap.Error(err))

	log.ErrorMessage = sql.NullString{
		String: "scripts applied but file records were not marked deployed: " + logging.SanitizeError(err),
		Valid:  true,
	}
	if logErr := c.store.CreateDeploymentLog(ctx, log); logErr != nil {
		c.logger.Error("Failed to write deployment log",
			zap.String("deployment_id", log.ID.String()),
			zap.Error(logErr))
	}
	return err
}
