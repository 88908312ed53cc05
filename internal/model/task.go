package model

import "time"

// TaskType distinguishes questionnaires from the follow-on work items the
// verification rule engine creates.
type TaskType string

const (
	TaskQuestionnaire     TaskType = "questionnaire"
	TaskDatabaseCheck     TaskType = "database_check"
	TaskTestReportRequest TaskType = "test_report_request"
	TaskDocumentation     TaskType = "documentation"
	TaskAuditRequest      TaskType = "audit_request"
)

// TaskStatus is the lifecycle state of an assessment or verification task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusSent       TaskStatus = "sent"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusVerified   TaskStatus = "verified"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusOverdue    TaskStatus = "overdue"
)

// Terminal reports whether the status is final. A terminal task is never
// re-entered into pending.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusVerified || s == TaskStatusFailed
}

// Category is the questionnaire type of an assessment.
type Category string

const (
	CategoryGeneral         Category = "general"
	CategoryChemicalContent Category = "chemical_content"
	CategoryDeforestation   Category = "deforestation"
	CategoryEmissions       Category = "emissions"
	CategoryPackaging       Category = "packaging"
	CategoryHumanRights     Category = "human_rights"
	CategoryEnvironmental   Category = "environmental"
)

// AllCategories returns the known questionnaire categories.
func AllCategories() []Category {
	return []Category{
		CategoryGeneral, CategoryChemicalContent, CategoryDeforestation,
		CategoryEmissions, CategoryPackaging, CategoryHumanRights,
		CategoryEnvironmental,
	}
}

// Task is an assessment (questionnaire) or a verification/remediation work
// item. Tasks generated by the rule engine reference the assessment that
// produced them via TriggeredBy.
type Task struct {
	ID                 string              `json:"id"`
	SupplierID         string              `json:"supplier_id"`
	Type               TaskType            `json:"type"`
	Category           Category            `json:"category,omitempty"`
	Title              string              `json:"title"`
	Description        string              `json:"description,omitempty"`
	Status             TaskStatus          `json:"status"`
	DueDate            time.Time           `json:"due_date"`
	Responses          map[string]string   `json:"responses,omitempty"`
	VerificationType   string              `json:"verification_type,omitempty"`
	RequiredDocuments  []string            `json:"required_documents,omitempty"`
	TriggeredBy        string              `json:"triggered_by,omitempty"`
	VerificationResult *VerificationResult `json:"verification_result,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// Finding is a single structured observation from an automated check.
type Finding struct {
	Code     string `json:"code"`
	Detail   string `json:"detail"`
	HighRisk bool   `json:"high_risk,omitempty"`
}

// VerificationResult is the structured outcome an automated check writes
// back to its task.
type VerificationResult struct {
	CheckType  string    `json:"check_type"`
	Passed     bool      `json:"passed"`
	Findings   []Finding `json:"findings,omitempty"`
	Diagnostic string    `json:"diagnostic,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}

// Adverse reports whether the result carries any finding.
func (r *VerificationResult) Adverse() bool {
	return r != nil && len(r.Findings) > 0
}

// HighRisk reports whether any finding is flagged high risk.
func (r *VerificationResult) HighRisk() bool {
	if r == nil {
		return false
	}
	for _, f := range r.Findings {
		if f.HighRisk {
			return true
		}
	}
	return false
}
