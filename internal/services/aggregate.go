package services

import (
	"strings"

	"github.com/google/uuid"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
)

type dedupeKey struct {
	projectID uuid.UUID
	name      string
}

// DedupeFiles keeps one record per project and case-insensitive file name.
// A successful conversion wins over any other status; otherwise the most
// recently updated record wins. The result keeps the order in which each
// name first appears. Stored history is never merged, only the view.
func DedupeFiles(files []models.FileRecord) []models.FileRecord {
	index := make(map[dedupeKey]int, len(files))
	out := make([]models.FileRecord, 0, len(files))
	for _, f := range files {
		key := dedupeKey{projectID: f.MigrationID, name: strings.ToLower(f.FileName)}
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, f)
			continue
		}
		if preferred(f, out[i]) {
			out[i] = f
		}
	}
	return out
}

// preferred reports whether a should replace b as the visible record.
func preferred(a, b models.FileRecord) bool {
	aSuccess := a.Status() == models.StatusSuccess
	bSuccess := b.Status() == models.StatusSuccess
	if aSuccess != bSuccess {
		return aSuccess
	}
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() > b.ID.String()
}

// Summarize counts files per status. Callers pass deduplicated files so
// retries of the same name are counted once.
func Summarize(files []models.FileRecord) models.ProjectSummary {
	var s models.ProjectSummary
	for _, f := range files {
		switch f.Status() {
		case models.StatusSuccess:
			s.SuccessCount++
		case models.StatusFailed:
			s.FailedCount++
		case models.StatusPending:
			s.PendingCount++
		case models.StatusPendingReview:
			s.PendingReviewCount++
		case models.StatusDeployed:
			s.DeployedCount++
		}
	}
	s.FileCount = len(files)
	s.HasConvertedFiles = s.SuccessCount > 0 || s.FailedCount > 0 ||
		s.PendingReviewCount > 0 || s.DeployedCount > 0
	return s
}
