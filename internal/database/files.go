package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/apperrors"
	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
)

const fileColumns = `f.id, f.migration_id, f.file_name, f.file_path, f.file_type, f.original_content,
	f.converted_content, f.conversion_status, f.error_message,
	f.data_type_mapping, f.issues, f.performance_metrics, f.deployment_timestamp,
	f.version, f.created_at, f.updated_at`

// ownedFiles restricts file_records to the projects of one user.
const ownedFiles = `file_records f JOIN migration_projects p ON p.id = f.migration_id`

func scanFile(row rowScanner) (*models.FileRecord, error) {
	var (
		f          models.FileRecord
		status     string
		converted  sql.NullString
		errMsg     sql.NullString
		deployedAt sql.NullTime
		raw        rawConversion
	)
	err := row.Scan(
		&f.ID, &f.MigrationID, &f.FileName, &f.FilePath, &f.FileType, &f.OriginalContent,
		&converted, &status, &errMsg,
		&raw.mapping, &raw.issues, &raw.metrics, &deployedAt,
		&f.Version, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	var convertedPtr, errPtr *string
	var deployedPtr *time.Time
	if converted.Valid {
		convertedPtr = &converted.String
	}
	if errMsg.Valid {
		errPtr = &errMsg.String
	}
	if deployedAt.Valid {
		deployedPtr = &deployedAt.Time
	}
	f.State, err = models.RestoreState(models.ConversionStatus(status), convertedPtr, errPtr, deployedPtr)
	if err != nil {
		return nil, fmt.Errorf("file %s: %w", f.ID, err)
	}

	f.DataTypeMapping, f.Issues, f.PerformanceMetrics, err = raw.decode()
	if err != nil {
		return nil, fmt.Errorf("file %s: %w", f.ID, err)
	}
	return &f, nil
}

// stateColumns flattens a FileState into its nullable columns.
func stateColumns(s models.FileState) (converted, errMsg sql.NullString, deployedAt sql.NullTime) {
	if c, ok := s.ConvertedContent(); ok {
		converted = sql.NullString{String: c, Valid: true}
	}
	if m, ok := s.ErrorMessage(); ok {
		errMsg = sql.NullString{String: m, Valid: true}
	}
	if at, ok := s.DeploymentTimestamp(); ok {
		deployedAt = sql.NullTime{Time: utc(at), Valid: true}
	}
	return converted, errMsg, deployedAt
}

// CreateFile inserts a file record into one of the user's projects. The
// record is written in whatever state it carries, so callers can insert a
// pending upload or a finished conversion.
func (d *DB) CreateFile(ctx context.Context, userID uuid.UUID, f *models.FileRecord) error {
	return d.withUser(ctx, userID, func(tx *sql.Tx) error {
		if _, err := d.getProject(ctx, tx, userID, f.MigrationID); err != nil {
			return err
		}
		if err := d.insertFile(ctx, tx, f); err != nil {
			return err
		}
		return d.touchProject(ctx, tx, f.MigrationID)
	})
}

func (d *DB) insertFile(ctx context.Context, tx *sql.Tx, f *models.FileRecord) error {
	cols, err := encodeConversion(f.DataTypeMapping, f.Issues, f.PerformanceMetrics)
	if err != nil {
		return err
	}
	converted, errMsg, deployedAt := stateColumns(f.State)
	if f.Version == 0 {
		f.Version = 1
	}

	_, err = d.exec(ctx, tx, `
		INSERT INTO file_records (
			id, migration_id, file_name, file_path, file_type, original_content,
			converted_content, conversion_status, error_message,
			data_type_mapping, issues, performance_metrics, deployment_timestamp,
			version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, f.ID, f.MigrationID, f.FileName, f.FilePath, f.FileType, f.OriginalContent,
		converted, f.Status(), errMsg,
		cols.mapping, cols.issues, cols.metrics, deployedAt,
		f.Version, utc(f.CreatedAt), utc(f.UpdatedAt))
	return d.storageErr("create file record", err)
}

func (d *DB) GetFile(ctx context.Context, userID, fileID uuid.UUID) (*models.FileRecord, error) {
	var file *models.FileRecord
	err := d.withUser(ctx, userID, func(tx *sql.Tx) error {
		var err error
		file, err = d.getFile(ctx, tx, userID, fileID)
		return err
	})
	return file, err
}

func (d *DB) getFile(ctx context.Context, tx *sql.Tx, userID, fileID uuid.UUID) (*models.FileRecord, error) {
	f, err := scanFile(d.queryRow(ctx, tx, `
		SELECT `+fileColumns+`
		FROM `+ownedFiles+`
		WHERE f.id = ? AND p.user_id = ?
	`, fileID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("file")
	}
	if err != nil {
		return nil, d.storageErr("get file record", err)
	}
	return f, nil
}

// FindPendingFileByName looks up the oldest pending record in a project whose
// name matches case-insensitively. It returns NotFound when there is none.
func (d *DB) FindPendingFileByName(ctx context.Context, userID, projectID uuid.UUID, fileName string) (*models.FileRecord, error) {
	var file *models.FileRecord
	err := d.withUser(ctx, userID, func(tx *sql.Tx) error {
		f, err := scanFile(d.queryRow(ctx, tx, `
			SELECT `+fileColumns+`
			FROM `+ownedFiles+`
			WHERE f.migration_id = ? AND p.user_id = ?
				AND LOWER(f.file_name) = LOWER(CAST(? AS TEXT)) AND f.conversion_status = ?
			ORDER BY f.created_at, f.id
			LIMIT 1
		`, projectID, userID, fileName, models.StatusPending))
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("pending file")
		}
		if err != nil {
			return d.storageErr("find pending file", err)
		}
		file = f
		return nil
	})
	return file, err
}

// ListFiles returns every record of a project in upload order, duplicates included.
func (d *DB) ListFiles(ctx context.Context, userID, projectID uuid.UUID) ([]models.FileRecord, error) {
	var files []models.FileRecord
	err := d.withUser(ctx, userID, func(tx *sql.Tx) error {
		if _, err := d.getProject(ctx, tx, userID, projectID); err != nil {
			return err
		}
		var err error
		files, err = d.listFiles(ctx, tx, `WHERE f.migration_id = ? AND p.user_id = ?`, projectID, userID)
		return err
	})
	return files, err
}

// ListAllFiles returns the records of every project the user owns.
func (d *DB) ListAllFiles(ctx context.Context, userID uuid.UUID) ([]models.FileRecord, error) {
	var files []models.FileRecord
	err := d.withUser(ctx, userID, func(tx *sql.Tx) error {
		var err error
		files, err = d.listFiles(ctx, tx, `WHERE p.user_id = ?`, userID)
		return err
	})
	return files, err
}

func (d *DB) listFiles(ctx context.Context, tx *sql.Tx, where string, args ...any) ([]models.FileRecord, error) {
	rows, err := d.query(ctx, tx, `
		SELECT `+fileColumns+`
		FROM `+ownedFiles+`
		`+where+`
		ORDER BY f.created_at, f.id
	`, args...)
	if err != nil {
		return nil, d.storageErr("list file records", err)
	}
	defer rows.Close()

	var files []models.FileRecord
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, d.storageErr("scan file record", err)
		}
		files = append(files, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, d.storageErr("list file records", err)
	}
	return files, nil
}

// UpdateFileState writes the record's source, state and conversion metadata
// if the stored version still equals f.Version. On success f.Version and
// f.UpdatedAt reflect the new row; a stale version yields a Conflict error.
func (d *DB) UpdateFileState(ctx context.Context, userID uuid.UUID, f *models.FileRecord) error {
	return d.UpdateFileStates(ctx, userID, []*models.FileRecord{f})
}

// UpdateFileStates applies UpdateFileState to several records atomically.
func (d *DB) UpdateFileStates(ctx context.Context, userID uuid.UUID, files []*models.FileRecord) error {
	if len(files) == 0 {
		return nil
	}
	now := d.now()
	err := d.withUser(ctx, userID, func(tx *sql.Tx) error {
		touched := map[uuid.UUID]bool{}
		for _, f := range files {
			if err := d.updateFileState(ctx, tx, userID, f, now); err != nil {
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

func (d *DB) updateFileState(ctx context.Context, tx *sql.Tx, userID uuid.UUID, f *models.FileRecord, now time.Time) error {
	cols, err := encodeConversion(f.DataTypeMapping, f.Issues, f.PerformanceMetrics)
	if err != nil {
		return err
	}
	converted, errMsg, deployedAt := stateColumns(f.State)

	res, err := d.exec(ctx, tx, `
		UPDATE file_records
		SET file_type = ?, original_content = ?,
			converted_content = ?, conversion_status = ?, error_message = ?,
			data_type_mapping = ?, issues = ?, performance_metrics = ?, deployment_timestamp = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
			AND migration_id IN (SELECT id FROM migration_projects WHERE user_id = ?)
	`, f.FileType, f.OriginalContent, converted, f.Status(), errMsg,
		cols.mapping, cols.issues, cols.metrics, deployedAt,
		now, f.ID, f.Version, userID)
	if err != nil {
		return d.storageErr("update file record", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return d.storageErr("update file record", err)
	}
	if n == 1 {
		return nil
	}

	// Distinguish a missing record from a lost race.
	if _, err := d.getFile(ctx, tx, userID, f.ID); err != nil {
		return err
	}
	return apperrors.New(apperrors.KindConflict,
		fmt.Sprintf("file %s was modified concurrently (expected version %d)", f.ID, f.Version))
}

func (d *DB) DeleteFile(ctx context.Context, userID, fileID uuid.UUID) error {
	return d.withUser(ctx, userID, func(tx *sql.Tx) error {
		f, err := d.getFile(ctx, tx, userID, fileID)
		if err != nil {
			return err
		}
		if _, err := d.exec(ctx, tx, `DELETE FROM file_records WHERE id = ?`, fileID); err != nil {
			return d.storageErr("delete file record", err)
		}
		return d.touchProject(ctx, tx, f.MigrationID)
	})
}
