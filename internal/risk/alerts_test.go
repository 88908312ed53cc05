package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/supplier-risk/internal/model"
)

func baseDelta() Delta {
	return Delta{
		SupplierID:    "sup-1",
		PreviousScore: 50,
		PreviousLevel: model.RiskLevelMedium,
		NewScore:      50,
		NewLevel:      model.RiskLevelMedium,
		Dimensions: model.Dimensions{
			Location: 50, Sector: 50, HumanRights: 50,
			Environmental: 50, Chemical: 50, Mineral: 50, Performance: 50,
		},
	}
}

func alertTypes(alerts []model.Alert) []model.AlertType {
	types := make([]model.AlertType, len(alerts))
	for i, a := range alerts {
		types[i] = a.Type
	}
	return types
}

func TestEvaluateAlerts_NoChange(t *testing.T) {
	alerts := EvaluateAlerts(baseDelta(), time.Now().UTC())
	assert.Empty(t, alerts)
}

func TestEvaluateAlerts_ScoreJump(t *testing.T) {
	d := baseDelta()
	d.NewScore = 65
	d.NewLevel = model.RiskLevelHigh

	alerts := EvaluateAlerts(d, time.Now().UTC())
	types := alertTypes(alerts)
	assert.Contains(t, types, model.AlertScoreIncrease)

	for _, a := range alerts {
		if a.Type == model.AlertScoreIncrease {
			assert.Equal(t, model.SeverityWarning, a.Severity)
			assert.Contains(t, a.Description, "50")
			assert.Contains(t, a.Description, "65")
		}
	}

	// +14 does not fire.
	d.NewScore = 64
	d.NewLevel = model.RiskLevelHigh
	assert.NotContains(t, alertTypes(EvaluateAlerts(d, time.Now().UTC())), model.AlertScoreIncrease)
}

func TestEvaluateAlerts_CriticalEdgeTriggered(t *testing.T) {
	d := baseDelta()
	d.PreviousScore = 70
	d.PreviousLevel = model.RiskLevelHigh
	d.NewScore = 80
	d.NewLevel = model.RiskLevelCritical

	alerts := EvaluateAlerts(d, time.Now().UTC())
	require.Contains(t, alertTypes(alerts), model.AlertCriticalRisk)

	// Already critical: recomputing at the same level must not re-alert.
	d.PreviousScore = 80
	d.PreviousLevel = model.RiskLevelCritical
	alerts = EvaluateAlerts(d, time.Now().UTC())
	assert.NotContains(t, alertTypes(alerts), model.AlertCriticalRisk)
}

func TestEvaluateAlerts_MediumToHigh(t *testing.T) {
	d := baseDelta()
	d.NewScore = 60
	d.NewLevel = model.RiskLevelHigh

	alerts := EvaluateAlerts(d, time.Now().UTC())
	assert.Contains(t, alertTypes(alerts), model.AlertHighRiskEntry)

	// low -> high is not separately alerted by rule 3.
	d.PreviousLevel = model.RiskLevelLow
	d.PreviousScore = 20
	alerts = EvaluateAlerts(d, time.Now().UTC())
	assert.NotContains(t, alertTypes(alerts), model.AlertHighRiskEntry)
}

func TestEvaluateAlerts_DimensionThresholds(t *testing.T) {
	d := baseDelta()
	d.Dimensions.HumanRights = 85
	d.Dimensions.Chemical = 92

	alerts := EvaluateAlerts(d, time.Now().UTC())

	var dimAlerts []model.Alert
	for _, a := range alerts {
		if a.Type == model.AlertDimensionThreshold {
			dimAlerts = append(dimAlerts, a)
		}
	}
	require.Len(t, dimAlerts, 2)

	bySev := map[model.AlertSeverity]int{}
	for _, a := range dimAlerts {
		bySev[a.Severity]++
	}
	assert.Equal(t, 1, bySev[model.SeverityWarning])  // 85
	assert.Equal(t, 1, bySev[model.SeverityCritical]) // 92

	// Repeat-fires on an unchanged elevated dimension.
	again := EvaluateAlerts(d, time.Now().UTC())
	assert.Equal(t, len(alerts), len(again))
}

func TestEvaluateAlerts_EndToEndScenario(t *testing.T) {
	// Medium 50 recomputed to high 68: exactly one high-risk-entry warning
	// and one score-increase warning, zero critical alerts.
	d := baseDelta()
	d.NewScore = 68
	d.NewLevel = model.RiskLevelHigh
	d.Dimensions = model.Dimensions{
		Location: 68, Sector: 68, HumanRights: 68,
		Environmental: 68, Chemical: 68, Mineral: 68, Performance: 68,
	}

	alerts := EvaluateAlerts(d, time.Now().UTC())
	require.Len(t, alerts, 2)

	types := alertTypes(alerts)
	assert.Contains(t, types, model.AlertScoreIncrease)
	assert.Contains(t, types, model.AlertHighRiskEntry)
	for _, a := range alerts {
		assert.Equal(t, model.SeverityWarning, a.Severity)
		assert.Equal(t, SourceRiskEngine, a.Source)
		assert.Equal(t, model.AlertStatusOpen, a.Status)
	}
}
