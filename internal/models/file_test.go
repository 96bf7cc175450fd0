package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestFileStateInvariants(t *testing.T) {
	states := []FileState{
		PendingState(),
		SucceededState("CREATE TABLE t (id NUMBER(10));"),
		FailedState("boom"),
		PendingReviewState("SELECT 1 FROM dual;"),
		DeployedState("SELECT 1 FROM dual;", time.Now()),
		{},
	}

	for _, s := range states {
		t.Run(string(s.Status()), func(t *testing.T) {
			_, hasConverted := s.ConvertedContent()
			_, hasError := s.ErrorMessage()
			assert.Equal(t, s.Status().HasConvertedContent(), hasConverted)
			assert.Equal(t, s.Status() == StatusFailed, hasError)
		})
	}
}

func TestFailedStateAlwaysCarriesMessage(t *testing.T) {
	msg, ok := FailedState("   ").ErrorMessage()
	require.True(t, ok)
	assert.Equal(t, "conversion failed", msg)
}

func TestRestoreState(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		status    ConversionStatus
		converted *string
		errMsg    *string
		wantErr   bool
	}{
		{name: "pending", status: StatusPending},
		{name: "success", status: StatusSuccess, converted: strPtr("x")},
		{name: "failed", status: StatusFailed, errMsg: strPtr("bad")},
		{name: "pending review", status: StatusPendingReview, converted: strPtr("x")},
		{name: "deployed", status: StatusDeployed, converted: strPtr("x")},
		{name: "success without content", status: StatusSuccess, wantErr: true},
		{name: "pending with content", status: StatusPending, converted: strPtr("x"), wantErr: true},
		{name: "failed without message", status: StatusFailed, wantErr: true},
		{name: "success with message", status: StatusSuccess, converted: strPtr("x"), errMsg: strPtr("bad"), wantErr: true},
		{name: "unknown status", status: "archived", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := RestoreState(tt.status, tt.converted, tt.errMsg, &now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, state.Status())
		})
	}
}

func TestTransitions(t *testing.T) {
	assert.True(t, PendingState().CanTransitionTo(StatusSuccess))
	assert.True(t, PendingState().CanTransitionTo(StatusFailed))
	assert.False(t, PendingState().CanTransitionTo(StatusDeployed))
	assert.True(t, FailedState("x").CanTransitionTo(StatusSuccess))
	assert.True(t, SucceededState("x").CanTransitionTo(StatusDeployed))
	assert.True(t, SucceededState("x").CanTransitionTo(StatusPendingReview))
	assert.True(t, PendingReviewState("x").CanTransitionTo(StatusSuccess))
	assert.False(t, PendingReviewState("x").CanTransitionTo(StatusDeployed))
	assert.False(t, DeployedState("x", time.Now()).CanTransitionTo(StatusSuccess))
}

func TestApplyFailureClearsOutput(t *testing.T) {
	f := &FileRecord{OriginalContent: "create table t (a int)"}
	f.ApplyConversion(&ConversionResult{
		ConvertedCode:   "CREATE TABLE t (a NUMBER(10));",
		Issues:          []Issue{{ID: "1", Description: "d", Severity: SeverityInfo}},
		DataTypeMapping: []DataTypeMapping{{SourceType: "INT", TargetType: "NUMBER(10)"}},
	})
	assert.Equal(t, "CREATE TABLE t (a NUMBER(10));", f.ExportContent())

	f.ApplyFailure("provider unavailable")
	_, ok := f.State.ConvertedContent()
	assert.False(t, ok)
	assert.Nil(t, f.Issues)
	assert.Nil(t, f.DataTypeMapping)
	assert.Equal(t, "create table t (a int)", f.ExportContent())
}

func TestIsSupportedFile(t *testing.T) {
	assert.True(t, IsSupportedFile("t1.sql"))
	assert.True(t, IsSupportedFile("P1.SQL"))
	assert.True(t, IsSupportedFile("orders.trg"))
	assert.True(t, IsSupportedFile("sub/dir/proc.prc"))
	assert.False(t, IsSupportedFile("x.bin"))
	assert.False(t, IsSupportedFile("README"))
}

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		content string
		want    FileType
	}{
		{"CREATE TABLE customers (id INT)", FileTypeTable},
		{"create procedure get_orders as select * from orders", FileTypeProcedure},
		{"CREATE PROC sp_x AS SELECT 1", FileTypeProcedure},
		{"CREATE OR REPLACE FUNCTION f RETURN NUMBER", FileTypeProcedure},
		{"CREATE TRIGGER trg_audit ON orders FOR INSERT AS INSERT INTO audit SELECT * FROM inserted", FileTypeTrigger},
		{"INSERT INTO t VALUES (1)", FileTypeOther},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFileType(tt.content))
		})
	}
}
