package models

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError:
		return true
	}
	return false
}

// Issue is a finding reported by the conversion step for one construct of the source.
type Issue struct {
	ID           string   `json:"id"`
	LineNumber   *int     `json:"line_number,omitempty"`
	Description  string   `json:"description"`
	Severity     Severity `json:"severity"`
	OriginalCode string   `json:"original_code,omitempty"`
	SuggestedFix string   `json:"suggested_fix,omitempty"`
}

type DataTypeMapping struct {
	SourceType  string `json:"source_type"`
	TargetType  string `json:"target_type"`
	Description string `json:"description,omitempty"`
}

type PerformanceMetrics struct {
	ConversionTimeMs      int64    `json:"conversion_time_ms"`
	OriginalLines         int      `json:"original_lines"`
	ConvertedLines        int      `json:"converted_lines"`
	ImprovementPercentage float64  `json:"improvement_percentage,omitempty"`
	PerformanceScore      float64  `json:"performance_score,omitempty"`
	Recommendations       []string `json:"recommendations,omitempty"`
}

// ConversionResult is what the conversion function hands back on success.
type ConversionResult struct {
	ConvertedCode      string              `json:"converted_code"`
	Issues             []Issue             `json:"issues"`
	DataTypeMapping    []DataTypeMapping   `json:"data_type_mapping,omitempty"`
	PerformanceMetrics *PerformanceMetrics `json:"performance_metrics,omitempty"`
}
