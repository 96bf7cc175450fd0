package models

import (
	"time"

	"github.com/google/uuid"
)

// MigrationProject groups the files a user converts together.
type MigrationProject struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	ProjectName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectSummary aggregates the conversion state of a project's files.
type ProjectSummary struct {
	FileCount          int  `json:"file_count"`
	SuccessCount       int  `json:"success_count"`
	FailedCount        int  `json:"failed_count"`
	PendingCount       int  `json:"pending_count"`
	PendingReviewCount int  `json:"pending_review_count"`
	DeployedCount      int  `json:"deployed_count"`
	HasConvertedFiles  bool `json:"has_converted_files"`
}

// ProjectHistory is a project together with its summary, as shown in history views.
type ProjectHistory struct {
	Project MigrationProject
	Summary ProjectSummary
}
