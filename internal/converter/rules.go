package converter

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
)

type typeRule struct {
	pattern     *regexp.Regexp
	source      string
	target      string
	description string
}

type rewriteRule struct {
	pattern *regexp.Regexp
	replace string
}

type issueRule struct {
	pattern     *regexp.Regexp
	description string
	severity    models.Severity
	fix         string
}

var typeRules = []typeRule{
	{regexp.MustCompile(`(?i)\bNVARCHAR\b`), "NVARCHAR", "NVARCHAR2", "variable-length Unicode string"},
	{regexp.MustCompile(`(?i)\bVARCHAR\b`), "VARCHAR", "VARCHAR2", "variable-length string"},
	{regexp.MustCompile(`(?i)\bSMALLDATETIME\b`), "SMALLDATETIME", "DATE", "date and time to the minute"},
	{regexp.MustCompile(`(?i)\bDATETIME\b`), "DATETIME", "DATE", "Oracle DATE keeps time to the second; use TIMESTAMP for fractions"},
	{regexp.MustCompile(`(?i)\bBIT\b`), "BIT", "NUMBER(1)", "boolean flag"},
	{regexp.MustCompile(`(?i)\bTINYINT\b`), "TINYINT", "NUMBER(3)", ""},
	{regexp.MustCompile(`(?i)\bSMALLINT\b`), "SMALLINT", "NUMBER(5)", ""},
	{regexp.MustCompile(`(?i)\bBIGINT\b`), "BIGINT", "NUMBER(19)", ""},
	{regexp.MustCompile(`(?i)\bINT(EGER)?\b`), "INT", "NUMBER(10)", ""},
	{regexp.MustCompile(`(?i)\bSMALLMONEY\b`), "SMALLMONEY", "NUMBER(10,4)", ""},
	{regexp.MustCompile(`(?i)\bMONEY\b`), "MONEY", "NUMBER(19,4)", ""},
	{regexp.MustCompile(`(?i)\bUNITEXT\b`), "UNITEXT", "NCLOB", ""},
	{regexp.MustCompile(`(?i)\bTEXT\b`), "TEXT", "CLOB", "large character data"},
	{regexp.MustCompile(`(?i)\bIMAGE\b`), "IMAGE", "BLOB", "large binary data"},
	{regexp.MustCompile(`(?i)\bVARBINARY\b`), "VARBINARY", "RAW", ""},
}

var rewriteRules = []rewriteRule{
	{regexp.MustCompile(`(?im)^\s*GO\s*$\n?`), ""},
	{regexp.MustCompile(`(?i)\bCREATE\s+PROC(EDURE)?\b`), "CREATE OR REPLACE PROCEDURE"},
	{regexp.MustCompile(`(?i)\bCREATE\s+TRIGGER\b`), "CREATE OR REPLACE TRIGGER"},
	{regexp.MustCompile(`(?i)\bCREATE\s+FUNCTION\b`), "CREATE OR REPLACE FUNCTION"},
	{regexp.MustCompile(`(?i)\bIDENTITY\s*(\(\s*\d+\s*,\s*\d+\s*\))?`), "GENERATED BY DEFAULT AS IDENTITY"},
	{regexp.MustCompile(`(?i)\bGETDATE\s*\(\s*\)`), "SYSDATE"},
	{regexp.MustCompile(`(?i)\bISNULL\s*\(`), "NVL("},
	{regexp.MustCompile(`(?i)\bLEN\s*\(`), "LENGTH("},
	{regexp.MustCompile(`(?i)\bCHARINDEX\s*\(`), "INSTR("},
	{regexp.MustCompile(`(?i)\bSUBSTRING\s*\(`), "SUBSTR("},
}

var issueRules = []issueRule{
	{
		pattern:     regexp.MustCompile(`(?i)@@ROWCOUNT`),
		description: "@@ROWCOUNT has no direct equivalent",
		severity:    models.SeverityWarning,
		fix:         "use SQL%ROWCOUNT immediately after the DML statement",
	},
	{
		pattern:     regexp.MustCompile(`(?i)\bSELECT\b[^;]*?\bINTO\s+#\w+`),
		description: "SELECT ... INTO a temporary table is not supported",
		severity:    models.SeverityWarning,
		fix:         "create a GLOBAL TEMPORARY TABLE and use INSERT INTO ... SELECT",
	},
	{
		pattern:     regexp.MustCompile(`(?i)\bRAISERROR\b`),
		description: "RAISERROR must be rewritten",
		severity:    models.SeverityWarning,
		fix:         "use RAISE_APPLICATION_ERROR(-20000 - n, message)",
	},
	{
		pattern:     regexp.MustCompile(`(?i)@@(ERROR|IDENTITY|TRANCOUNT)`),
		description: "global variable has no direct equivalent",
		severity:    models.SeverityWarning,
		fix:         "use exception handlers, RETURNING INTO or autonomous transactions",
	},
	{
		pattern:     regexp.MustCompile(`(?i)\bDECLARE\s+@\w+`),
		description: "local variables must move into the PL/SQL declaration section",
		severity:    models.SeverityInfo,
		fix:         "declare the variable without @ before BEGIN",
	},
}

// RuleConverter is a deterministic regex based converter covering common
// type names and built-in functions. It never calls out of process.
type RuleConverter struct{}

func NewRuleConverter() *RuleConverter {
	return &RuleConverter{}
}

func (r *RuleConverter) Name() string {
	return "rules"
}

func (r *RuleConverter) Convert(ctx context.Context, source string) (*models.ConversionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(source) == "" {
		return nil, NewError(ErrorTypeInput, "source is empty", false, nil)
	}
	start := time.Now()

	result := &models.ConversionResult{}
	converted := source

	for _, rule := range typeRules {
		if !rule.pattern.MatchString(converted) {
			continue
		}
		converted = rule.pattern.ReplaceAllString(converted, rule.target)
		result.DataTypeMapping = append(result.DataTypeMapping, models.DataTypeMapping{
			SourceType:  rule.source,
			TargetType:  rule.target,
			Description: rule.description,
		})
	}
	for _, rule := range rewriteRules {
		converted = rule.pattern.ReplaceAllString(converted, rule.replace)
	}

	result.Issues = findIssues(source)
	result.ConvertedCode = terminate(strings.TrimSpace(converted))

	normalized, err := normalizeResult(result)
	if err != nil {
		return nil, err
	}
	normalized.PerformanceMetrics = &models.PerformanceMetrics{
		ConversionTimeMs: time.Since(start).Milliseconds(),
		OriginalLines:    countLines(source),
		ConvertedLines:   countLines(normalized.ConvertedCode),
	}
	return normalized, nil
}

func findIssues(source string) []models.Issue {
	var issues []models.Issue
	lines := strings.Split(source, "\n")
	for _, rule := range issueRules {
		for i, line := range lines {
			match := rule.pattern.FindString(line)
			if match == "" {
				continue
			}
			lineNumber := i + 1
			issues = append(issues, models.Issue{
				ID:           fmt.Sprintf("rule-%d", len(issues)+1),
				LineNumber:   &lineNumber,
				Description:  rule.description,
				Severity:     rule.severity,
				OriginalCode: strings.TrimSpace(line),
				SuggestedFix: rule.fix,
			})
		}
	}
	return issues
}

// terminate makes sure the final statement ends with a semicolon.
func terminate(code string) string {
	if code == "" || strings.HasSuffix(code, ";") || strings.HasSuffix(code, "/") {
		return code
	}
	return code + ";"
}
