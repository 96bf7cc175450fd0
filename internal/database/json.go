package database

import (
	"encoding/json"
	"fmt"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
)

// conversionColumns holds the JSON-encoded conversion metadata shared by
// file_records and unreviewed_files.
type conversionColumns struct {
	mapping string
	issues  string
	metrics *string
}

func encodeConversion(mapping []models.DataTypeMapping, issues []models.Issue, metrics *models.PerformanceMetrics) (conversionColumns, error) {
	var cols conversionColumns

	if mapping == nil {
		mapping = []models.DataTypeMapping{}
	}
	b, err := json.Marshal(mapping)
	if err != nil {
		return cols, fmt.Errorf("failed to encode data type mapping: %w", err)
	}
	cols.mapping = string(b)

	if issues == nil {
		issues = []models.Issue{}
	}
	b, err = json.Marshal(issues)
	if err != nil {
		return cols, fmt.Errorf("failed to encode issues: %w", err)
	}
	cols.issues = string(b)

	if metrics != nil {
		b, err = json.Marshal(metrics)
		if err != nil {
			return cols, fmt.Errorf("failed to encode performance metrics: %w", err)
		}
		s := string(b)
		cols.metrics = &s
	}
	return cols, nil
}

// rawConversion receives the JSON columns during a scan.
type rawConversion struct {
	mapping []byte
	issues  []byte
	metrics []byte
}

func (r rawConversion) decode() ([]models.DataTypeMapping, []models.Issue, *models.PerformanceMetrics, error) {
	var (
		mapping []models.DataTypeMapping
		issues  []models.Issue
		metrics *models.PerformanceMetrics
	)
	if len(r.mapping) > 0 {
		if err := json.Unmarshal(r.mapping, &mapping); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to decode data type mapping: %w", err)
		}
	}
	if len(r.issues) > 0 {
		if err := json.Unmarshal(r.issues, &issues); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to decode issues: %w", err)
		}
	}
	if len(r.metrics) > 0 {
		metrics = &models.PerformanceMetrics{}
		if err := json.Unmarshal(r.metrics, metrics); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to decode performance metrics: %w", err)
		}
	}
	if len(mapping) == 0 {
		mapping = nil
	}
	if len(issues) == 0 {
		issues = nil
	}
	return mapping, issues, metrics, nil
}
