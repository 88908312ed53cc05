package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDimensions_GetSet(t *testing.T) {
	var d Dimensions
	for i, dim := range AllDimensions() {
		d.Set(dim, i*10)
	}

	assert.Equal(t, 0, d.Location)
	assert.Equal(t, 10, d.Sector)
	assert.Equal(t, 20, d.HumanRights)
	assert.Equal(t, 30, d.Environmental)
	assert.Equal(t, 40, d.Chemical)
	assert.Equal(t, 50, d.Mineral)
	assert.Equal(t, 60, d.Performance)

	for i, dim := range AllDimensions() {
		assert.Equal(t, i*10, d.Get(dim))
	}
}

func TestNeutralDimensions(t *testing.T) {
	d := NeutralDimensions()
	for _, dim := range AllDimensions() {
		assert.Equal(t, 50, d.Get(dim), string(dim))
	}
}

func TestTaskStatus_Terminal(t *testing.T) {
	tests := []struct {
		status TaskStatus
		want   bool
	}{
		{TaskStatusPending, false},
		{TaskStatusSent, false},
		{TaskStatusInProgress, false},
		{TaskStatusCompleted, false},
		{TaskStatusOverdue, false},
		{TaskStatusVerified, true},
		{TaskStatusFailed, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.Terminal(), string(tt.status))
	}
}

func TestVerificationResult_Flags(t *testing.T) {
	var nilResult *VerificationResult
	assert.False(t, nilResult.Adverse())
	assert.False(t, nilResult.HighRisk())

	clean := &VerificationResult{CheckType: "sanctions_list", Passed: true}
	assert.False(t, clean.Adverse())

	adverse := &VerificationResult{
		CheckType: "sanctions_list",
		Findings:  []Finding{{Code: "sanctions_match", Detail: "entity listed"}},
	}
	assert.True(t, adverse.Adverse())
	assert.False(t, adverse.HighRisk())

	adverse.Findings = append(adverse.Findings, Finding{Code: "registry_mismatch", HighRisk: true})
	assert.True(t, adverse.HighRisk())
}
