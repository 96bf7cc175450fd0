package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// ClearHistory deletes every file record, project and deployment log the user
// owns. It runs as one transaction: if any delete fails nothing is removed,
// so projects are never deleted while their files remain.
func (d *DB) ClearHistory(ctx context.Context, userID uuid.UUID) error {
	return d.withUser(ctx, userID, func(tx *sql.Tx) error {
		steps := []struct {
			op    string
			query string
		}{
			{"clear file records", `DELETE FROM file_records WHERE migration_id IN (SELECT id FROM migration_projects WHERE user_id = ?)`},
			{"clear projects", `DELETE FROM migration_projects WHERE user_id = ?`},
			{"clear deployment logs", `DELETE FROM deployment_logs WHERE user_id = ?`},
		}
		for _, step := range steps {
			if _, err := d.exec(ctx, tx, step.query, userID); err != nil {
				return d.storageErr(step.op, err)
			}
		}
		return nil
	})
}
