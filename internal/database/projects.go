package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/apperrors"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
)

const projectColumns = `id, user_id, project_name, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.MigrationProject, error) {
	var p models.MigrationProject
	if err := row.Scan(&p.ID, &p.UserID, &p.ProjectName, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *DB) CreateProject(ctx context.Context, p *models.MigrationProject) error {
	return d.withUser(ctx, p.UserID, func(tx *sql.Tx) error {
		_, err := d.exec(ctx, tx, `
			INSERT INTO migration_projects (id, user_id, project_name, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`, p.ID, p.UserID, p.ProjectName, utc(p.CreatedAt), utc(p.UpdatedAt))
		return d.storageErr("create project", err)
	})
}

func (d *DB) GetProject(ctx context.Context, userID, projectID uuid.UUID) (*models.MigrationProject, error) {
	var project *models.MigrationProject
	err := d.withUser(ctx, userID, func(tx *sql.Tx) error {
		var err error
		project, err = d.getProject(ctx, tx, userID, projectID)
		return err
	})
	return project, err
}

func (d *DB) getProject(ctx context.Context, tx *sql.Tx, userID, projectID uuid.UUID) (*models.MigrationProject, error) {
	p, err := scanProject(d.queryRow(ctx, tx, `
		SELECT `+projectColumns+`
		FROM migration_projects
		WHERE id = ? AND user_id = ?
	`, projectID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("project")
	}
	if err != nil {
		return nil, d.storageErr("get project", err)
	}
	return p, nil
}

// GetLatestProject returns the user's most recently created project, or a
// NotFound error when the user has none.
func (d *DB) GetLatestProject(ctx context.Context, userID uuid.UUID) (*models.MigrationProject, error) {
	var project *models.MigrationProject
	err := d.withUser(ctx, userID, func(tx *sql.Tx) error {
		p, err := scanProject(d.queryRow(ctx, tx, `
			SELECT `+projectColumns+`
			FROM migration_projects
			WHERE user_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		`, userID))
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("project")
		}
		if err != nil {
			return d.storageErr("get latest project", err)
		}
		project = p
		return nil
	})
	return project, err
}

func (d *DB) ListProjects(ctx context.Context, userID uuid.UUID) ([]models.MigrationProject, error) {
	var projects []models.MigrationProject
	err := d.withUser(ctx, userID, func(tx *sql.Tx) error {
		rows, err := d.query(ctx, tx, `
			SELECT `+projectColumns+`
			FROM migration_projects
			WHERE user_id = ?
			ORDER BY created_at DESC, id DESC
		`, userID)
		if err != nil {
			return d.storageErr("list projects", err)
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProject(rows)
			if err != nil {
				return d.storageErr("scan project", err)
			}
			projects = append(projects, *p)
		}
		return d.storageErr("list projects", rows.Err())
	})
	return projects, err
}

func (d *DB) RenameProject(ctx context.Context, userID, projectID uuid.UUID, name string) (*models.MigrationProject, error) {
	var project *models.MigrationProject
	err := d.withUser(ctx, userID, func(tx *sql.Tx) error {
		p, err := d.getProject(ctx, tx, userID, projectID)
		if err != nil {
			return err
		}
		p.ProjectName = name
		p.UpdatedAt = d.now()
		if _, err := d.exec(ctx, tx, `
			UPDATE migration_projects
			SET project_name = ?, updated_at = ?
			WHERE id = ? AND user_id = ?
		`, p.ProjectName, p.UpdatedAt, projectID, userID); err != nil {
			return d.storageErr("rename project", err)
		}
		project = p
		return nil
	})
	return project, err
}

// DeleteProject removes a project and its file records in one transaction so
// no file record is ever left without its project.
func (d *DB) DeleteProject(ctx context.Context, userID, projectID uuid.UUID) error {
	return d.withUser(ctx, userID, func(tx *sql.Tx) error {
		if _, err := d.getProject(ctx, tx, userID, projectID); err != nil {
			return err
		}
		if _, err := d.exec(ctx, tx, `DELETE FROM file_records WHERE migration_id = ?`, projectID); err != nil {
			return d.storageErr("delete project files", err)
		}
		if _, err := d.exec(ctx, tx, `DELETE FROM migration_projects WHERE id = ? AND user_id = ?`, projectID, userID); err != nil {
			return d.storageErr("delete project", err)
		}
		return nil
	})
}

// touchProject bumps updated_at after a change to one of the project's files.
func (d *DB) touchProject(ctx context.Context, tx *sql.Tx, projectID uuid.UUID) error {
	_, err := d.exec(ctx, tx, `UPDATE migration_projects SET updated_at = ? WHERE id = ?`, d.now(), projectID)
	return d.storageErr("touch project", err)
}
