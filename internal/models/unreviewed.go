package models

import (
	"time"

	"github.com/google/uuid"
)

type UnreviewedStatus string

const (
	UnreviewedStatusUnreviewed UnreviewedStatus = "unreviewed"
	UnreviewedStatusReviewed   UnreviewedStatus = "reviewed"
)

func (s UnreviewedStatus) Valid() bool {
	return s == UnreviewedStatusUnreviewed || s == UnreviewedStatusReviewed
}

// UnreviewedFile is a staging copy of a converted file that the user can edit
// freely. Changes never reach the FileRecord it was forked from until the
// user promotes it.
type UnreviewedFile struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	SourceFileID uuid.NullUUID
	FileName     string
	OriginalCode string
	// ConvertedCode is the user's working copy; AIGeneratedCode keeps the
	// conversion output it started from.
	ConvertedCode      string
	AIGeneratedCode    string
	Status             UnreviewedStatus
	DataTypeMapping    []DataTypeMapping
	Issues             []Issue
	PerformanceMetrics *PerformanceMetrics
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// UnreviewedFilter narrows the review list. Zero values match everything.
type UnreviewedFilter struct {
	Search string
	Status UnreviewedStatus
}
