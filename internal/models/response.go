package models

import (
	"time"
)

type ProjectResponse struct {
	ID          string          `json:"id"`
	ProjectName string          `json:"project_name"`
	Summary     *ProjectSummary `json:"summary,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type ProjectListResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type FileResponse struct {
	ID                  string              `json:"id"`
	MigrationID         string              `json:"migration_id"`
	FileName            string              `json:"file_name"`
	FilePath            string              `json:"file_path"`
	FileType            FileType            `json:"file_type"`
	OriginalContent     string              `json:"original_content"`
	ConvertedContent    *string             `json:"converted_content"`
	ConversionStatus    ConversionStatus    `json:"conversion_status"`
	ErrorMessage        *string             `json:"error_message"`
	DataTypeMapping     []DataTypeMapping   `json:"data_type_mapping"`
	Issues              []Issue             `json:"issues"`
	PerformanceMetrics  *PerformanceMetrics `json:"performance_metrics"`
	DeploymentTimestamp *string             `json:"deployment_timestamp"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// NewFileResponse flattens a record's state into the nullable wire fields.
func NewFileResponse(f *FileRecord) FileResponse {
	resp := FileResponse{
		ID:                 f.ID.String(),
		MigrationID:        f.MigrationID.String(),
		FileName:           f.FileName,
		FilePath:           f.FilePath,
		FileType:           f.FileType,
		OriginalContent:    f.OriginalContent,
		ConversionStatus:   f.Status(),
		DataTypeMapping:    f.DataTypeMapping,
		Issues:             f.Issues,
		PerformanceMetrics: f.PerformanceMetrics,
		CreatedAt:          f.CreatedAt,
		UpdatedAt:          f.UpdatedAt,
	}
	if resp.DataTypeMapping == nil {
		resp.DataTypeMapping = []DataTypeMapping{}
	}
	if resp.Issues == nil {
		resp.Issues = []Issue{}
	}
	if converted, ok := f.State.ConvertedContent(); ok {
		resp.ConvertedContent = &converted
	}
	if msg, ok := f.State.ErrorMessage(); ok {
		resp.ErrorMessage = &msg
	}
	if at, ok := f.State.DeploymentTimestamp(); ok {
		ts := at.UTC().Format(time.RFC3339)
		resp.DeploymentTimestamp = &ts
	}
	return resp
}

type FilesResponse struct {
	Files []FileResponse `json:"files"`
}

type UploadFailure struct {
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
}

type UploadResponse struct {
	ProjectID string          `json:"project_id"`
	Files     []FileResponse  `json:"files"`
	Rejected  []UploadFailure `json:"rejected,omitempty"`
	Failed    []UploadFailure `json:"failed,omitempty"`
}

type UnreviewedFileResponse struct {
	ID                 string              `json:"id"`
	SourceFileID       *string             `json:"source_file_id,omitempty"`
	FileName           string              `json:"file_name"`
	OriginalCode       string              `json:"original_code"`
	ConvertedCode      string              `json:"converted_code"`
	AIGeneratedCode    string              `json:"ai_generated_code"`
	Status             UnreviewedStatus    `json:"status"`
	DataTypeMapping    []DataTypeMapping   `json:"data_type_mapping"`
	Issues             []Issue             `json:"issues"`
	PerformanceMetrics *PerformanceMetrics `json:"performance_metrics"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

func NewUnreviewedFileResponse(u *UnreviewedFile) UnreviewedFileResponse {
	resp := UnreviewedFileResponse{
		ID:                 u.ID.String(),
		FileName:           u.FileName,
		OriginalCode:       u.OriginalCode,
		ConvertedCode:      u.ConvertedCode,
		AIGeneratedCode:    u.AIGeneratedCode,
		Status:             u.Status,
		DataTypeMapping:    u.DataTypeMapping,
		Issues:             u.Issues,
		PerformanceMetrics: u.PerformanceMetrics,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
	if u.SourceFileID.Valid {
		id := u.SourceFileID.UUID.String()
		resp.SourceFileID = &id
	}
	if resp.DataTypeMapping == nil {
		resp.DataTypeMapping = []DataTypeMapping{}
	}
	if resp.Issues == nil {
		resp.Issues = []Issue{}
	}
	return resp
}

type UnreviewedListResponse struct {
	Files []UnreviewedFileResponse `json:"files"`
}

type DeploymentLogResponse struct {
	ID           string           `json:"id"`
	MigrationID  *string          `json:"migration_id"`
	Status       DeploymentStatus `json:"status"`
	FileCount    int              `json:"file_count"`
	LinesOfSQL   int              `json:"lines_of_sql"`
	ErrorMessage *string          `json:"error_message"`
	CreatedAt    time.Time        `json:"created_at"`
}

func NewDeploymentLogResponse(d *DeploymentLog) DeploymentLogResponse {
	resp := DeploymentLogResponse{
		ID:         d.ID.String(),
		Status:     d.Status,
		FileCount:  d.FileCount,
		LinesOfSQL: d.LinesOfSQL,
		CreatedAt:  d.CreatedAt,
	}
	if d.MigrationID.Valid {
		id := d.MigrationID.UUID.String()
		resp.MigrationID = &id
	}
	if d.ErrorMessage.Valid {
		msg := d.ErrorMessage.String
		resp.ErrorMessage = &msg
	}
	return resp
}

type DeploymentListResponse struct {
	Deployments []DeploymentLogResponse `json:"deployments"`
}

type ExportResponse struct {
	FileName   string `json:"file_name"`
	StorageURL string `json:"storage_url"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func NewProjectResponse(p *MigrationProject, summary *ProjectSummary) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID.String(),
		ProjectName: p.ProjectName,
		Summary:     summary,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type DeployResponse struct {
	Deployment DeploymentLogResponse `json:"deployment"`
	Files      []FileResponse        `json:"files"`
}
