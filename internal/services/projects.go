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

const projectNameLayout = "2006-01-02 15:04:05"

// StartProject creates a project. An empty name is replaced by one derived
// from the current time.
func (c *Controller) StartProject(ctx context.Context, userID uuid.UUID, name string) (*models.MigrationProject, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	now := c.now()
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Migration " + now.Format(projectNameLayout)
	}

	project := &models.MigrationProject{
		ID:          uuid.New(),
		UserID:      userID,
		ProjectName: name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.store.CreateProject(ctx, project); err != nil {
		return nil, err
	}

	c.logger.Info("Project started",
		zap.String("project_id", project.ID.String()),
		zap.String("project_name", project.ProjectName))
	c.publish(ctx, userID, models.EntityProject, project.ID, "created", map[string]any{
		"project_name": project.ProjectName,
	})
	return project, nil
}

// GetOrCreateActiveProject returns the user's newest project, creating one if
// the user has none yet. Only session entry points should call it; everything
// downstream takes the project id explicitly.
func (c *Controller) GetOrCreateActiveProject(ctx context.Context, userID uuid.UUID) (*models.MigrationProject, error) {
	project, err := c.store.GetLatestProject(ctx, userID)
	if err == nil {
		return project, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	return c.StartProject(ctx, userID, "")
}

// GetProject returns a project together with the summary of its files.
func (c *Controller) GetProject(ctx context.Context, userID, projectID uuid.UUID) (*models.ProjectHistory, error) {
	project, err := c.store.GetProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	summary, err := c.ProjectSummary(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	return &models.ProjectHistory{Project: *project, Summary: summary}, nil
}

func (c *Controller) ProjectSummary(ctx context.Context, userID, projectID uuid.UUID) (models.ProjectSummary, error) {
	files, err := c.store.ListFiles(ctx, userID, projectID)
	if err != nil {
		return models.ProjectSummary{}, err
	}
	return Summarize(DedupeFiles(files)), nil
}

// ListProjects returns every project of the user, newest first, each with
// its summary.
func (c *Controller) ListProjects(ctx context.Context, userID uuid.UUID) ([]models.ProjectHistory, error) {
	projects, err := c.store.ListProjects(ctx, userID)
	if err != nil {
		return nil, err
	}
	files, err := c.store.ListAllFiles(ctx, userID)
	if err != nil {
		return nil, err
	}

	byProject := make(map[uuid.UUID][]models.FileRecord, len(projects))
	for _, f := range files {
		byProject[f.MigrationID] = append(byProject[f.MigrationID], f)
	}

	out := make([]models.ProjectHistory, 0, len(projects))
	for _, p := range projects {
		out = append(out, models.ProjectHistory{
			Project: p,
			Summary: Summarize(DedupeFiles(byProject[p.ID])),
		})
	}
	return out, nil
}

// ListHistory is ListProjects restricted to projects that have converted
// files. Projects holding only pending uploads are still in progress.
func (c *Controller) ListHistory(ctx context.Context, userID uuid.UUID) ([]models.ProjectHistory, error) {
	projects, err := c.ListProjects(ctx, userID)
	if err != nil {
		return nil, err
	}
	history := make([]models.ProjectHistory, 0, len(projects))
	for _, p := range projects {
		if p.Summary.HasConvertedFiles {
			history = append(history, p)
		}
	}
	return history, nil
}

func (c *Controller) RenameProject(ctx context.Context, userID, projectID uuid.UUID, name string) (*models.MigrationProject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation("project name is required")
	}
	project, err := c.store.RenameProject(ctx, userID, projectID, name)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, userID, models.EntityProject, projectID, "renamed", map[string]any{
		"project_name": name,
	})
	return project, nil
}

// DeleteProject removes the project and its files. Archived exports are
// cleaned up afterwards on a best-effort basis.
func (c *Controller) DeleteProject(ctx context.Context, userID, projectID uuid.UUID) error {
	if err := c.store.DeleteProject(ctx, userID, projectID); err != nil {
		return err
	}

	c.logger.Info("Project deleted", zap.String("project_id", projectID.String()))
	if c.archiver != nil {
		if err := c.archiver.RemoveProject(ctx, userID, projectID); err != nil {
			c.logger.Warn("Failed to remove archived exports",
				zap.String("project_id", projectID.String()),
				zap.Error(err))
		}
	}
	c.publish(ctx, userID, models.EntityProject, projectID, "deleted", nil)
	return nil
}

// ClearAllHistory deletes the user's file records, projects and deployment
// logs. Staging files are not part of history and are kept.
func (c *Controller) ClearAllHistory(ctx context.Context, userID uuid.UUID) error {
	if err := c.store.ClearHistory(ctx, userID); err != nil {
		return err
	}
	c.logger.Info("History cleared", zap.String("user_id", userID.String()))
	c.publish(ctx, userID, models.EntityHistory, userID, "cleared", nil)
	return nil
}
