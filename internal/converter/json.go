package converter

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
)

// thinkTagPattern matches <think>...</think> preambles some models emit.
var thinkTagPattern = regexp.MustCompile(`(?s)^\s*<think>.*?</think>\s*`)

// ExtractJSON returns the first balanced JSON object in a model response,
// ignoring surrounding prose and markdown fences.
func ExtractJSON(response string) (string, error) {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")

	if s, ok := extractBalancedJSON(cleaned); ok && json.Valid([]byte(s)) {
		return s, nil
	}

	trimmed := strings.TrimSpace(cleaned)
	if json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}
	return "", fmt.Errorf("no valid JSON found in response")
}

func extractBalancedJSON(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// parseResult decodes a model response into a ConversionResult and rejects
// answers without converted code.
func parseResult(response string) (*models.ConversionResult, error) {
	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return nil, NewError(ErrorTypeResponse, "unparseable conversion response", false, err)
	}

	var result models.ConversionResult
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return nil, NewError(ErrorTypeResponse, "unparseable conversion response", false, err)
	}
	return normalizeResult(&result)
}

// normalizeResult trims the converted code, fills in missing issue ids and
// downgrades unknown severities to warning.
func normalizeResult(result *models.ConversionResult) (*models.ConversionResult, error) {
	result.ConvertedCode = strings.TrimSpace(stripFences(result.ConvertedCode))
	if result.ConvertedCode == "" {
		return nil, ErrEmptyResult
	}
	for i := range result.Issues {
		if result.Issues[i].ID == "" {
			result.Issues[i].ID = fmt.Sprintf("issue-%d", i+1)
		}
		if !result.Issues[i].Severity.Valid() {
			result.Issues[i].Severity = models.SeverityWarning
		}
	}
	return result, nil
}

var fencePattern = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*\\s*\n(.*?)\n?```\\s*$")

func stripFences(code string) string {
	if m := fencePattern.FindStringSubmatch(code); m != nil {
		return m[1]
	}
	return code
}

// countLines counts non-blank lines.
func countLines(s string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
