package models

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type FileType string

const (
	FileTypeTable     FileType = "table"
	FileTypeProcedure FileType = "procedure"
	FileTypeTrigger   FileType = "trigger"
	FileTypeOther     FileType = "other"
)

func (t FileType) Valid() bool {
	switch t {
	case FileTypeTable, FileTypeProcedure, FileTypeTrigger, FileTypeOther:
		return true
	}
	return false
}

type ConversionStatus string

const (
	StatusPending       ConversionStatus = "pending"
	StatusSuccess       ConversionStatus = "success"
	StatusFailed        ConversionStatus = "failed"
	StatusPendingReview ConversionStatus = "pending_review"
	StatusDeployed      ConversionStatus = "deployed"
)

func (s ConversionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusFailed, StatusPendingReview, StatusDeployed:
		return true
	}
	return false
}

// HasConvertedContent reports whether records in this status carry converted SQL.
func (s ConversionStatus) HasConvertedContent() bool {
	return s == StatusSuccess || s == StatusPendingReview || s == StatusDeployed
}

var fileTransitions = map[ConversionStatus][]ConversionStatus{
	StatusPending:       {StatusSuccess, StatusFailed},
	StatusFailed:        {StatusSuccess, StatusFailed},
	StatusSuccess:       {StatusSuccess, StatusFailed, StatusPendingReview, StatusDeployed},
	StatusPendingReview: {StatusSuccess},
	StatusDeployed:      {},
}

// FileState is the conversion state of a FileRecord. The payload that belongs
// to a status only exists in that status: converted content for success,
// pending_review and deployed, an error message for failed and a timestamp for
// deployed. Build values with the constructors below.
type FileState struct {
	status       ConversionStatus
	converted    string
	errorMessage string
	deployedAt   time.Time
}

func PendingState() FileState {
	return FileState{status: StatusPending}
}

func SucceededState(converted string) FileState {
	return FileState{status: StatusSuccess, converted: converted}
}

func FailedState(message string) FileState {
	if strings.TrimSpace(message) == "" {
		message = "conversion failed"
	}
	return FileState{status: StatusFailed, errorMessage: message}
}

func PendingReviewState(converted string) FileState {
	return FileState{status: StatusPendingReview, converted: converted}
}

func DeployedState(converted string, at time.Time) FileState {
	return FileState{status: StatusDeployed, converted: converted, deployedAt: at}
}

// RestoreState rebuilds a state from stored columns and rejects rows that
// break the content/status invariants.
func RestoreState(status ConversionStatus, converted, errorMessage *string, deployedAt *time.Time) (FileState, error) {
	if !status.Valid() {
		return FileState{}, fmt.Errorf("unknown conversion status %q", status)
	}
	if status.HasConvertedContent() != (converted != nil) {
		return FileState{}, fmt.Errorf("status %s with converted content present=%t", status, converted != nil)
	}
	if (status == StatusFailed) != (errorMessage != nil) {
		return FileState{}, fmt.Errorf("status %s with error message present=%t", status, errorMessage != nil)
	}

	switch status {
	case StatusPending:
		return PendingState(), nil
	case StatusSuccess:
		return SucceededState(*converted), nil
	case StatusFailed:
		return FailedState(*errorMessage), nil
	case StatusPendingReview:
		return PendingReviewState(*converted), nil
	default:
		var at time.Time
		if deployedAt != nil {
			at = *deployedAt
		}
		return DeployedState(*converted, at), nil
	}
}

func (s FileState) Status() ConversionStatus {
	if s.status == "" {
		return StatusPending
	}
	return s.status
}

func (s FileState) ConvertedContent() (string, bool) {
	return s.converted, s.Status().HasConvertedContent()
}

func (s FileState) ErrorMessage() (string, bool) {
	return s.errorMessage, s.Status() == StatusFailed
}

func (s FileState) DeploymentTimestamp() (time.Time, bool) {
	return s.deployedAt, s.Status() == StatusDeployed && !s.deployedAt.IsZero()
}

func (s FileState) CanTransitionTo(next ConversionStatus) bool {
	for _, allowed := range fileTransitions[s.Status()] {
		if allowed == next {
			return true
		}
	}
	return false
}

// FileRecord is one uploaded source artifact and its conversion history entry.
type FileRecord struct {
	ID                 uuid.UUID
	MigrationID        uuid.UUID
	FileName           string
	FilePath           string
	FileType           FileType
	OriginalContent    string
	State              FileState
	DataTypeMapping    []DataTypeMapping
	Issues             []Issue
	PerformanceMetrics *PerformanceMetrics
	// Version increments on every state write and guards compare-and-swap updates.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (f *FileRecord) Status() ConversionStatus {
	return f.State.Status()
}

// ExportContent returns the text a download of this file should contain.
func (f *FileRecord) ExportContent() string {
	if converted, ok := f.State.ConvertedContent(); ok {
		return converted
	}
	return f.OriginalContent
}

// ApplyConversion records the outcome of the conversion function on the record.
func (f *FileRecord) ApplyConversion(result *ConversionResult) {
	f.State = SucceededState(result.ConvertedCode)
	f.Issues = result.Issues
	f.DataTypeMapping = result.DataTypeMapping
	f.PerformanceMetrics = result.PerformanceMetrics
}

// ApplyFailure clears any previous conversion output and records the error.
func (f *FileRecord) ApplyFailure(message string) {
	f.State = FailedState(message)
	f.Issues = nil
	f.DataTypeMapping = nil
	f.PerformanceMetrics = nil
}

var supportedExtensions = map[string]bool{
	".sql":  true,
	".txt":  true,
	".ddl":  true,
	".tab":  true,
	".prc":  true,
	".proc": true,
	".trg":  true,
}

// IsSupportedFile reports whether an uploaded file name looks like SQL source.
func IsSupportedFile(fileName string) bool {
	return supportedExtensions[strings.ToLower(path.Ext(fileName))]
}

var (
	triggerPattern   = regexp.MustCompile(`(?i)\bCREATE\s+(OR\s+REPLACE\s+)?TRIGGER\b`)
	procedurePattern = regexp.MustCompile(`(?i)\bCREATE\s+(OR\s+REPLACE\s+)?(PROC|PROCEDURE|FUNCTION)\b`)
	tablePattern     = regexp.MustCompile(`(?i)\bCREATE\s+((GLOBAL\s+)?TEMPORARY\s+)?TABLE\b`)
)

// DetectFileType classifies source text by the first object it creates.
// Triggers are checked first since trigger bodies often contain other DDL.
func DetectFileType(content string) FileType {
	switch {
	case triggerPattern.MatchString(content):
		return FileTypeTrigger
	case procedurePattern.MatchString(content):
		return FileTypeProcedure
	case tablePattern.MatchString(content):
		return FileTypeTable
	default:
		return FileTypeOther
	}
}
