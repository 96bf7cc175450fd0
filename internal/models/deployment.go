package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type DeploymentStatus string

const (
	DeploymentSuccess DeploymentStatus = "Success"
	DeploymentFailed  DeploymentStatus = "Failed"
)

func (s DeploymentStatus) Valid() bool {
	return s == DeploymentSuccess || s == DeploymentFailed
}

// DeploymentLog is an append-only record of one push to the target database.
// MigrationID is a weak reference: the project may since have been deleted.
type DeploymentLog struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	MigrationID  uuid.NullUUID
	Status       DeploymentStatus
	FileCount    int
	LinesOfSQL   int
	ErrorMessage sql.NullString
	CreatedAt    time.Time
}
