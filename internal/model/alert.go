package model

import "time"

// AlertSeverity grades an alert.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// AlertStatus tracks human review of an alert. The engine only ever creates
// alerts as open; transitions belong to the reviewing application.
type AlertStatus string

const (
	AlertStatusOpen         AlertStatus = "open"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
	AlertStatusDismissed    AlertStatus = "dismissed"
)

// AlertType identifies what triggered an alert.
type AlertType string

const (
	AlertScoreIncrease      AlertType = "score_increase"
	AlertCriticalRisk       AlertType = "critical_risk"
	AlertHighRiskEntry      AlertType = "high_risk_entry"
	AlertDimensionThreshold AlertType = "dimension_threshold"
	AlertRuleEscalation     AlertType = "rule_escalation"
	AlertVerificationFailed AlertType = "verification_failed"
	AlertTaskOverdue        AlertType = "task_overdue"
)

// Alert is an event requiring human attention, produced by the alert
// generator or the verification rule engine. Immutable after creation
// except for status transitions.
type Alert struct {
	ID          string        `json:"id"`
	SupplierID  string        `json:"supplier_id"`
	Type        AlertType     `json:"type"`
	Severity    AlertSeverity `json:"severity"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Source      string        `json:"source"`
	Status      AlertStatus   `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}
