package models

import "github.com/google/uuid"

type CreateProjectRequest struct {
	// Optional; a timestamped name is generated when empty.
	ProjectName string `json:"project_name,omitempty"`
}

type RenameProjectRequest struct {
	ProjectName string `json:"project_name" binding:"required"`
}

// FileInput is one uploaded or pasted source file.
type FileInput struct {
	FileName string `json:"file_name"`
	// FilePath is the path relative to the uploaded folder root, if any.
	FilePath string `json:"file_path,omitempty"`
	Content  string `json:"content"`
}

type EditUnreviewedRequest struct {
	ConvertedCode string `json:"converted_code"`
}

type MarkReviewedRequest struct {
	ConvertedCode string `json:"converted_code"`
	OriginalCode  string `json:"original_code"`
}

type PromoteRequest struct {
	ProjectID *uuid.UUID `json:"project_id,omitempty"`
}

type DeployRequest struct {
	FileIDs []uuid.UUID `json:"file_ids" binding:"required"`
}

type RecordDeploymentRequest struct {
	Status       DeploymentStatus `json:"status" binding:"required"`
	FileCount    int              `json:"file_count"`
	LinesOfSQL   int              `json:"lines_of_sql"`
	ErrorMessage *string          `json:"error_message,omitempty"`
	MigrationID  *uuid.UUID       `json:"migration_id,omitempty"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// UploadRequest is the JSON alternative to a multipart upload.
type UploadRequest struct {
	Files []FileInput `json:"files" binding:"required"`
}

type UnreviewedQuery struct {
	Search string           `form:"search"`
	Status UnreviewedStatus `form:"status"`
}
