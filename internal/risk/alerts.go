package risk

import (
	"fmt"
	"time"

	"github.com/sells-group/supplier-risk/internal/model"
)

// SourceRiskEngine tags alerts produced by the scoring engine.
const SourceRiskEngine = "risk_engine"

// Delta captures one supplier's risk state before and after a recompute.
type Delta struct {
	SupplierID    string           `json:"supplier_id"`
	PreviousScore int              `json:"previous_score"`
	PreviousLevel model.RiskLevel  `json:"previous_level"`
	NewScore      int              `json:"new_score"`
	NewLevel      model.RiskLevel  `json:"new_level"`
	Dimensions    model.Dimensions `json:"dimensions"`
}

// EvaluateAlerts compares new vs previous risk state and returns the alerts
// the change warrants. The rules are independent; several can fire from one
// recompute:
//
//  1. warning when the overall score rose by 15 or more,
//  2. critical on first entry into the critical level (edge-triggered),
//  3. warning specifically on the medium to high transition,
//  4. one alert per dimension at or above 80 (critical at 90), which
//     re-fires on every recompute while the dimension stays elevated.
//
// Descriptions carry the triggering numbers so the alert is readable
// without consulting other records.
func EvaluateAlerts(delta Delta, now time.Time) []model.Alert {
	var alerts []model.Alert

	newAlert := func(typ model.AlertType, sev model.AlertSeverity, title, desc string) model.Alert {
		return model.Alert{
			SupplierID:  delta.SupplierID,
			Type:        typ,
			Severity:    sev,
			Title:       title,
			Description: desc,
			Source:      SourceRiskEngine,
			Status:      model.AlertStatusOpen,
			CreatedAt:   now,
		}
	}

	if delta.NewScore-delta.PreviousScore >= 15 {
		alerts = append(alerts, newAlert(
			model.AlertScoreIncrease,
			model.SeverityWarning,
			"Risk score increased significantly",
			fmt.Sprintf("Overall risk score rose from %d to %d (+%d).",
				delta.PreviousScore, delta.NewScore, delta.NewScore-delta.PreviousScore),
		))
	}

	if delta.NewLevel == model.RiskLevelCritical && delta.PreviousLevel != model.RiskLevelCritical {
		alerts = append(alerts, newAlert(
			model.AlertCriticalRisk,
			model.SeverityCritical,
			"Supplier entered critical risk",
			fmt.Sprintf("Risk level changed from %s to critical (score %d).",
				delta.PreviousLevel, delta.NewScore),
		))
	}

	if delta.NewLevel == model.RiskLevelHigh && delta.PreviousLevel == model.RiskLevelMedium {
		alerts = append(alerts, newAlert(
			model.AlertHighRiskEntry,
			model.SeverityWarning,
			"Supplier entered high risk",
			fmt.Sprintf("Risk level changed from medium to high (score %d, was %d).",
				delta.NewScore, delta.PreviousScore),
		))
	}

	for _, dim := range model.AllDimensions() {
		v := delta.Dimensions.Get(dim)
		if v < 80 {
			continue
		}
		sev := model.SeverityWarning
		if v >= 90 {
			sev = model.SeverityCritical
		}
		alerts = append(alerts, newAlert(
			model.AlertDimensionThreshold,
			sev,
			fmt.Sprintf("Elevated %s risk", dim),
			fmt.Sprintf("Dimension %s is at %d (threshold 80).", dim, v),
		))
	}

	return alerts
}
