package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
)

func (d *DB) CreateDeploymentLog(ctx context.Context, log *models.DeploymentLog) error {
	return d.withUser(ctx, log.UserID, func(tx *sql.Tx) error {
		return d.insertDeploymentLog(ctx, tx, log)
	})
}

// CompleteDeployment writes a deployment log together with the state of the
// files it deployed. Either both are stored or neither is; a file whose
// version moved since it was read fails the whole write with a Conflict.
func (d *DB) CompleteDeployment(ctx context.Context, log *models.DeploymentLog, files []*models.FileRecord) error {
	now := d.now()
	err := d.withUser(ctx, log.UserID, func(tx *sql.Tx) error {
		if err := d.insertDeploymentLog(ctx, tx, log); err != nil {
			return err
		}
		touched := map[uuid.UUID]bool{}
		for _, f := range files {
			if err := d.updateFileState(ctx, tx, log.UserID, f, now); err != nil {
				return err
			}
			touched[f.MigrationID] = true
		}
		for projectID := range touched {
			if err := d.touchProject(ctx, tx, projectID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, f := range files {
		f.Version++
		f.UpdatedAt = now
	}
	return nil
}

func (d *DB) insertDeploymentLog(ctx context.Context, tx *sql.Tx, log *models.DeploymentLog) error {
	_, err := d.exec(ctx, tx, `
		INSERT INTO deployment_logs (id, user_id, migration_id, status, file_count, lines_of_sql, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, log.ID, log.UserID, log.MigrationID, log.Status, log.FileCount, log.LinesOfSQL,
		log.ErrorMessage, utc(log.CreatedAt))
	return d.storageErr("create deployment log", err)
}

func (d *DB) ListDeploymentLogs(ctx context.Context, userID uuid.UUID) ([]models.DeploymentLog, error) {
	var logs []models.DeploymentLog
	err := d.withUser(ctx, userID, func(tx *sql.Tx) error {
		rows, err := d.query(ctx, tx, `
			SELECT id, user_id, migration_id, status, file_count, lines_of_sql, error_message, created_at
			FROM deployment_logs
			WHERE user_id = ?
			ORDER BY created_at DESC, id DESC
		`, userID)
		if err != nil {
			return d.storageErr("list deployment logs", err)
		}
		defer rows.Close()

		for rows.Next() {
			var l models.DeploymentLog
			if err := rows.Scan(&l.ID, &l.UserID, &l.MigrationID, &l.Status, &l.FileCount,
				&l.LinesOfSQL, &l.ErrorMessage, &l.CreatedAt); err != nil {
				return d.storageErr("scan deployment log", err)
			}
			logs = append(logs, l)
		}
		return d.storageErr("list deployment logs", rows.Err())
	})
	return logs, err
}
