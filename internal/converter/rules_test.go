package converter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steezyneo/oracle-ai-migrate-sub000/internal/models"
)

func TestRuleConverter_TableDDL(t *testing.T) {
	source := `CREATE TABLE customers (
    id INT IDENTITY(1,1) NOT NULL,
    name VARCHAR(100) NOT NULL,
    notes TEXT NULL,
    active BIT DEFAULT 1,
    created DATETIME DEFAULT GETDATE()
)
GO`

	result, err := NewRuleConverter().Convert(context.Background(), source)
	require.NoError(t, err)

	assert.Contains(t, result.ConvertedCode, "id NUMBER(10) GENERATED BY DEFAULT AS IDENTITY NOT NULL")
	assert.Contains(t, result.ConvertedCode, "name VARCHAR2(100)")
	assert.Contains(t, result.ConvertedCode, "notes CLOB")
	assert.Contains(t, result.ConvertedCode, "active NUMBER(1)")
	assert.Contains(t, result.ConvertedCode, "created DATE DEFAULT SYSDATE")
	assert.NotContains(t, result.ConvertedCode, "GO")
	assert.True(t, len(result.ConvertedCode) > 0 && result.ConvertedCode[len(result.ConvertedCode)-1] == ';')

	targets := map[string]string{}
	for _, m := range result.DataTypeMapping {
		targets[m.SourceType] = m.TargetType
	}
	assert.Equal(t, "NUMBER(10)", targets["INT"])
	assert.Equal(t, "VARCHAR2", targets["VARCHAR"])
	assert.Equal(t, "DATE", targets["DATETIME"])
	assert.Empty(t, result.Issues)

	require.NotNil(t, result.PerformanceMetrics)
	assert.Equal(t, 8, result.PerformanceMetrics.OriginalLines)
}

func TestRuleConverter_ReportsUntranslatableConstructs(t *testing.T) {
	source := `CREATE PROCEDURE archive_orders AS
BEGIN
    SELECT * INTO #old_orders FROM orders WHERE created < GETDATE()
    IF @@ROWCOUNT = 0
        RAISERROR('nothing to archive', 16, 1)
END`

	result, err := NewRuleConverter().Convert(context.Background(), source)
	require.NoError(t, err)

	assert.Contains(t, result.ConvertedCode, "CREATE OR REPLACE PROCEDURE archive_orders")
	require.Len(t, result.Issues, 3)

	lines := map[int]models.Severity{}
	for _, issue := range result.Issues {
		require.NotNil(t, issue.LineNumber)
		lines[*issue.LineNumber] = issue.Severity
		assert.NotEmpty(t, issue.ID)
		assert.NotEmpty(t, issue.SuggestedFix)
	}
	assert.Equal(t, models.SeverityWarning, lines[3])
	assert.Equal(t, models.SeverityWarning, lines[4])
	assert.Equal(t, models.SeverityWarning, lines[5])
}

func TestRuleConverter_IsDeterministic(t *testing.T) {
	source := "CREATE TABLE t (a MONEY, b BIGINT)"
	c := NewRuleConverter()

	first, err := c.Convert(context.Background(), source)
	require.NoError(t, err)
	second, err := c.Convert(context.Background(), source)
	require.NoError(t, err)

	assert.Equal(t, first.ConvertedCode, second.ConvertedCode)
	assert.Equal(t, first.DataTypeMapping, second.DataTypeMapping)
	assert.Equal(t, "CREATE TABLE t (a NUMBER(19,4), b NUMBER(19));", first.ConvertedCode)
}

func TestRuleConverter_EmptySource(t *testing.T) {
	_, err := NewRuleConverter().Convert(context.Background(), "   \n")

	var convErr *Error
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, ErrorTypeInput, convErr.Type)
	assert.False(t, convErr.IsRetryable())
}

func TestRuleConverter_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRuleConverter().Convert(ctx, "CREATE TABLE t (a INT)")
	assert.ErrorIs(t, err, context.Canceled)
}
