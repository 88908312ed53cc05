package verify

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/supplier-risk/internal/events"
	"github.com/sells-group/supplier-risk/internal/model"
	"github.com/sells-group/supplier-risk/internal/risk"
)

// SourceVerification tags alerts raised by the verification engine.
const SourceVerification = "verification_engine"

// TaskStore is the persistence surface the verification engine needs. The
// full store satisfies it.
type TaskStore interface {
	GetSupplier(ctx context.Context, id string) (*model.Supplier, error)
	CreateTask(ctx context.Context, task *model.Task) error
	UpdateTaskStatus(ctx context.Context, id string, status model.TaskStatus) error
	SetVerificationResult(ctx context.Context, id string, result *model.VerificationResult, status model.TaskStatus) error
	CreateAlert(ctx context.Context, alert *model.Alert) error
}

// CascadeResult reports everything a processed assessment produced.
type CascadeResult struct {
	Tasks  []model.Task
	Alerts []model.Alert
	Checks []*Check
}

// Engine matches completed questionnaire responses against the rule table
// and materializes follow-up tasks, escalation alerts, and automated checks.
type Engine struct {
	rules   *RuleSet
	store   TaskStore
	emitter events.Emitter
	sim     *Simulator
	now     func() time.Time
	log     *zap.Logger
}

// NewEngine builds a verification engine. sim may be nil, in which case
// database_check tasks are created but not dispatched.
func NewEngine(rules *RuleSet, store TaskStore, emitter events.Emitter, sim *Simulator) *Engine {
	if emitter == nil {
		emitter = events.Nop{}
	}
	return &Engine{
		rules:   rules,
		store:   store,
		emitter: emitter,
		sim:     sim,
		now:     time.Now,
		log:     zap.L().With(zap.String("component", "verify")),
	}
}

// ProcessAssessment walks the responses of a completed questionnaire in
// deterministic key order and fires every matching rule. Response keys with
// no rule are ignored. A malformed rule is skipped with a warning; it never
// aborts the cascade.
func (e *Engine) ProcessAssessment(ctx context.Context, assessment model.Task) (*CascadeResult, error) {
	if assessment.Type != model.TaskQuestionnaire {
		return nil, eris.Errorf("verify: assessment %s is a %s, not a questionnaire", assessment.ID, assessment.Type)
	}
	supplier, err := e.store.GetSupplier(ctx, assessment.SupplierID)
	if err != nil {
		return nil, eris.Wrap(err, "verify: load supplier for assessment")
	}

	keys := make([]string, 0, len(assessment.Responses))
	for k := range assessment.Responses {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := &CascadeResult{}
	now := e.now().UTC()
	for _, key := range keys {
		rule, ok := e.rules.Lookup(assessment.Category, key)
		if !ok {
			e.log.Debug("no rule for response key",
				zap.String("category", string(assessment.Category)),
				zap.String("key", key))
			continue
		}
		answer := risk.NormalizeAnswer(assessment.Responses[key])
		if answer != rule.TriggerValue {
			continue
		}
		if err := validateRule(rule); err != nil {
			e.log.Warn("skipping malformed rule",
				zap.String("category", string(rule.Category)),
				zap.String("key", rule.Key),
				zap.Error(err))
			continue
		}
		if err := e.fireRule(ctx, rule, assessment, supplier, now, result); err != nil {
			return nil, err
		}
	}

	e.log.Info("assessment processed",
		zap.String("supplier_id", assessment.SupplierID),
		zap.String("assessment_id", assessment.ID),
		zap.Int("tasks", len(result.Tasks)),
		zap.Int("alerts", len(result.Alerts)),
		zap.Int("checks", len(result.Checks)))
	return result, nil
}

func (e *Engine) fireRule(ctx context.Context, rule Rule, assessment model.Task, supplier *model.Supplier, now time.Time, result *CascadeResult) error {
	for _, spec := range rule.Specs {
		task := model.Task{
			ID:                uuid.NewString(),
			SupplierID:        assessment.SupplierID,
			Type:              spec.TaskType,
			Category:          rule.Category,
			Title:             spec.Title,
			Description:       spec.Description,
			Status:            model.TaskStatusPending,
			DueDate:           now.AddDate(0, 0, spec.DueInDays),
			VerificationType:  spec.VerificationType,
			RequiredDocuments: spec.RequiredDocuments,
			TriggeredBy:       assessment.ID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := e.store.CreateTask(ctx, &task); err != nil {
			return eris.Wrapf(err, "verify: create %s task", spec.TaskType)
		}
		result.Tasks = append(result.Tasks, task)
		e.emitter.Emit(ctx, events.New(events.TypeTaskCreated, task))

		if spec.Severity == model.SeverityCritical {
			alert := model.Alert{
				ID:         uuid.NewString(),
				SupplierID: assessment.SupplierID,
				Type:       model.AlertRuleEscalation,
				Severity:   model.SeverityCritical,
				Title:      spec.Title,
				Status:     model.AlertStatusOpen,
				Source:     SourceVerification,
				Description: fmt.Sprintf("Response %q=%q in category %s requires %s",
					rule.Key, rule.TriggerValue, rule.Category, spec.TaskType),
				CreatedAt: now,
			}
			if err := e.store.CreateAlert(ctx, &alert); err != nil {
				return eris.Wrap(err, "verify: create escalation alert")
			}
			result.Alerts = append(result.Alerts, alert)
			e.emitter.Emit(ctx, events.New(events.TypeAlertCreated, alert))
		}

		if task.Type == model.TaskDatabaseCheck && e.sim != nil {
			result.Checks = append(result.Checks, e.sim.Dispatch(ctx, task, *supplier))
		}
	}
	return nil
}

func validateRule(rule Rule) error {
	if len(rule.Specs) == 0 {
		return eris.Wrap(model.ErrInvalidRule, "rule has no specs")
	}
	if rule.TriggerValue != "yes" && rule.TriggerValue != "no" {
		return eris.Wrapf(model.ErrInvalidRule, "trigger value %q", rule.TriggerValue)
	}
	for _, spec := range rule.Specs {
		switch spec.TaskType {
		case model.TaskDatabaseCheck:
			if spec.VerificationType == "" {
				return eris.Wrap(model.ErrInvalidRule, "database_check without verification type")
			}
		case model.TaskTestReportRequest, model.TaskDocumentation, model.TaskAuditRequest:
		default:
			return eris.Wrapf(model.ErrInvalidRule, "task type %q", spec.TaskType)
		}
	}
	return nil
}
