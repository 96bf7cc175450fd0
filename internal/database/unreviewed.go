package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/apperrors"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
)

const unreviewedColumns = `id, user_id, source_file_id, file_name, original_code, converted_code,
	ai_generated_code, status, data_type_mapping, issues, performance_metrics, created_at, updated_at`

func scanUnreviewed(row rowScanner) (*models.UnreviewedFile, error) {
	var (
		u   models.UnreviewedFile
		raw rawConversion
	)
	err := row.Scan(
		&u.ID, &u.UserID, &u.SourceFileID, &u.FileName, &u.OriginalCode, &u.ConvertedCode,
		&u.AIGeneratedCode, &u.Status, &raw.mapping, &raw.issues, &raw.metrics, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if !u.Status.Valid() {
		return nil, fmt.Errorf("unreviewed file %s: unknown status %q", u.ID, u.Status)
	}
	u.DataTypeMapping, u.Issues, u.PerformanceMetrics, err = raw.decode()
	if err != nil {
		return nil, fmt.Errorf("unreviewed file %s: %w", u.ID, err)
	}
	return &u, nil
}

func (d *DB) CreateUnreviewed(ctx context.Context, u *models.UnreviewedFile) error {
	cols, err := encodeConversion(u.DataTypeMapping, u.Issues, u.PerformanceMetrics)
	if err != nil {
		return err
	}
	return d.withUser(ctx, u.UserID, func(tx *sql.Tx) error {
		_, err := d.exec(ctx, tx, `
			INSERT INTO unreviewed_files (
				id, user_id, source_file_id, file_name, original_code, converted_code,
				ai_generated_code, status, data_type_mapping, issues, performance_metrics,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, u.ID, u.UserID, u.SourceFileID, u.FileName, u.OriginalCode, u.ConvertedCode,
			u.AIGeneratedCode, u.Status, cols.mapping, cols.issues, cols.metrics,
			utc(u.CreatedAt), utc(u.UpdatedAt))
		return d.storageErr("create unreviewed file", err)
	})
}

func (d *DB) GetUnreviewed(ctx context.Context, userID, id uuid.UUID) (*models.UnreviewedFile, error) {
	var file *models.UnreviewedFile
	err := d.withUser(ctx, userID, func(tx *sql.Tx) error {
		var err error
		file, err = d.getUnreviewed(ctx, tx, userID, id)
		return err
	})
	return file, err
}

func (d *DB) getUnreviewed(ctx context.Context, tx *sql.Tx, userID, id uuid.UUID) (*models.UnreviewedFile, error) {
	u, err := scanUnreviewed(d.queryRow(ctx, tx, `
		SELECT `+unreviewedColumns+`
		FROM unreviewed_files
		WHERE id = ? AND user_id = ?
	`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("unreviewed file")
	}
	if err != nil {
		return nil, d.storageErr("get unreviewed file", err)
	}
	return u, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListUnreviewed returns the user's staging files, newest first, narrowed by
// a case-insensitive name search and an optional status.
func (d *DB) ListUnreviewed(ctx context.Context, userID uuid.UUID, filter models.UnreviewedFilter) ([]models.UnreviewedFile, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}
	if search := strings.TrimSpace(filter.Search); search != "" {
		where = append(where, `LOWER(file_name) LIKE CAST(? AS TEXT) ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(search))+"%")
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}

	var files []models.UnreviewedFile
	err := d.withUser(ctx, userID, func(tx *sql.Tx) error {
		rows, err := d.query(ctx, tx, `
			SELECT `+unreviewedColumns+`
			FROM unreviewed_files
			WHERE `+strings.Join(where, " AND ")+`
			ORDER BY created_at DESC, id DESC
		`, args...)
		if err != nil {
			return d.storageErr("list unreviewed files", err)
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUnreviewed(rows)
			if err != nil {
				return d.storageErr("scan unreviewed file", err)
			}
			files = append(files, *u)
		}
		return d.storageErr("list unreviewed files", rows.Err())
	})
	return files, err
}

// UpdateUnreviewed saves the editable fields of a staging file: both code
// columns and the status.
func (d *DB) UpdateUnreviewed(ctx context.Context, u *models.UnreviewedFile) error {
	now := d.now()
	err := d.withUser(ctx, u.UserID, func(tx *sql.Tx) error {
		res, err := d.exec(ctx, tx, `
			UPDATE unreviewed_files
			SET original_code = ?, converted_code = ?, status = ?, updated_at = ?
			WHERE id = ? AND user_id = ?
		`, u.OriginalCode, u.ConvertedCode, u.Status, now, u.ID, u.UserID)
		if err != nil {
			return d.storageErr("update unreviewed file", err)
		}
		return d.requireRow(res, "unreviewed file")
	})
	if err != nil {
		return err
	}
	u.UpdatedAt = now
	return nil
}

func (d *DB) DeleteUnreviewed(ctx context.Context, userID, id uuid.UUID) error {
	return d.withUser(ctx, userID, func(tx *sql.Tx) error {
		res, err := d.exec(ctx, tx, `DELETE FROM unreviewed_files WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return d.storageErr("delete unreviewed file", err)
		}
		return d.requireRow(res, "unreviewed file")
	})
}

// PromoteUnreviewed inserts the file record built from a staging file and
// removes the staging row in the same transaction.
func (d *DB) PromoteUnreviewed(ctx context.Context, userID, unreviewedID uuid.UUID, f *models.FileRecord) error {
	return d.withUser(ctx, userID, func(tx *sql.Tx) error {
		if _, err := d.getUnreviewed(ctx, tx, userID, unreviewedID); err != nil {
			return err
		}
		if _, err := d.getProject(ctx, tx, userID, f.MigrationID); err != nil {
			return err
		}
		if err := d.insertFile(ctx, tx, f); err != nil {
			return err
		}
		if _, err := d.exec(ctx, tx, `DELETE FROM unreviewed_files WHERE id = ? AND user_id = ?`, unreviewedID, userID); err != nil {
			return d.storageErr("delete promoted file", err)
		}
		return d.touchProject(ctx, tx, f.MigrationID)
	})
}

func (d *DB) requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return d.storageErr("read affected rows", err)
	}
	if n == 0 {
		return apperrors.NotFound(what)
	}
	return nil
}
