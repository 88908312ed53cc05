// Package engine orchestrates risk recomputation: it wires the store, the
// dimension calculator, the alert generator, and the verification rule
// engine into the operations the CLI and HTTP surfaces expose.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/supplier-risk/internal/events"
	"github.com/sells-group/supplier-risk/internal/model"
	"github.com/sells-group/supplier-risk/internal/risk"
	"github.com/sells-group/supplier-risk/internal/store"
	"github.com/sells-group/supplier-risk/internal/verify"
)

// onboardingDueDays is how long a newly registered supplier has to return
// the initial general questionnaire.
const onboardingDueDays = 14

// Driver runs recomputes and assessment cascades.
type Driver struct {
	store       store.Store
	calc        *risk.Calculator
	weights     risk.Weights
	verify      *verify.Engine
	emitter     events.Emitter
	locks       *keyedMutex
	concurrency int
	now         func() time.Time
	log         *zap.Logger
}

// Options tunes driver construction.
type Options struct {
	// Weights overrides the default overall-score weights.
	Weights risk.Weights
	// Concurrency caps parallel suppliers in RecomputeAll. Default 5.
	Concurrency int
}

// New builds a driver. verifyEngine may be nil when assessment cascades are
// not needed (import-only tooling).
func New(st store.Store, calc *risk.Calculator, verifyEngine *verify.Engine, emitter events.Emitter, opts Options) *Driver {
	if emitter == nil {
		emitter = events.Nop{}
	}
	weights := opts.Weights
	if weights == nil {
		weights = risk.DefaultWeights()
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Driver{
		store:       st,
		calc:        calc,
		weights:     weights,
		verify:      verifyEngine,
		emitter:     emitter,
		locks:       newKeyedMutex(),
		concurrency: concurrency,
		now:         time.Now,
		log:         zap.L().With(zap.String("component", "engine")),
	}
}

// RegisterSupplier onboards a supplier: neutral dimensions, a neutral
// overall score, and an initial general questionnaire due in two weeks.
func (d *Driver) RegisterSupplier(ctx context.Context, sup *model.Supplier) (*model.Task, error) {
	if sup.ID == "" {
		sup.ID = uuid.NewString()
	}
	sup.Dimensions = model.NeutralDimensions()
	sup.OverallScore = 50
	sup.RiskLevel = risk.LevelFor(sup.OverallScore)

	if err := d.store.CreateSupplier(ctx, sup); err != nil {
		return nil, eris.Wrap(err, "engine: register supplier")
	}

	now := d.now().UTC()
	task := model.Task{
		ID:         uuid.NewString(),
		SupplierID: sup.ID,
		Type:       model.TaskQuestionnaire,
		Category:   model.CategoryGeneral,
		Title:      "Initial supplier self-assessment",
		Status:     model.TaskStatusPending,
		DueDate:    now.AddDate(0, 0, onboardingDueDays),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := d.store.CreateTask(ctx, &task); err != nil {
		return nil, eris.Wrap(err, "engine: create onboarding questionnaire")
	}
	d.emitter.Emit(ctx, events.New(events.TypeTaskCreated, task))

	d.log.Info("supplier registered",
		zap.String("supplier_id", sup.ID),
		zap.String("name", sup.Name))
	return &task, nil
}

// RecomputeResult is the outcome of one supplier recompute.
type RecomputeResult struct {
	Delta  risk.Delta    `json:"delta"`
	Alerts []model.Alert `json:"alerts,omitempty"`
}

// RecomputeOne rebuilds a supplier's dimensions and overall score from its
// current attributes, sites, and completed questionnaires, persists the new
// state, and raises whatever alerts the change warrants. Recomputes for the
// same supplier are serialized; unchanged inputs always produce an
// unchanged score.
func (d *Driver) RecomputeOne(ctx context.Context, supplierID string) (*RecomputeResult, error) {
	unlock := d.locks.Lock(supplierID)
	defer unlock()

	sup, err := d.store.GetSupplier(ctx, supplierID)
	if err != nil {
		return nil, eris.Wrap(err, "engine: recompute load supplier")
	}
	sites, err := d.store.ListSites(ctx, supplierID)
	if err != nil {
		return nil, eris.Wrap(err, "engine: recompute load sites")
	}
	tasks, err := d.store.ListTasks(ctx, store.TaskFilter{SupplierID: supplierID, Limit: 1000})
	if err != nil {
		return nil, eris.Wrap(err, "engine: recompute load tasks")
	}

	dims := d.calc.Compute(*sup, sites, tasks)
	overall := risk.Overall(dims, d.weights)
	level := risk.LevelFor(overall)
	completeness := risk.Completeness(*sup, sites, tasks)

	delta := risk.Delta{
		SupplierID:    supplierID,
		PreviousScore: sup.OverallScore,
		PreviousLevel: sup.RiskLevel,
		NewScore:      overall,
		NewLevel:      level,
		Dimensions:    dims,
	}

	if err := d.store.UpdateSupplierRisk(ctx, supplierID, dims, overall, level, completeness); err != nil {
		return nil, eris.Wrap(err, "engine: persist recompute")
	}

	now := d.now().UTC()
	alerts := risk.EvaluateAlerts(delta, now)
	for i := range alerts {
		alerts[i].ID = uuid.NewString()
		if err := d.store.CreateAlert(ctx, &alerts[i]); err != nil {
			return nil, eris.Wrap(err, "engine: persist alert")
		}
		d.emitter.Emit(ctx, events.New(events.TypeAlertCreated, alerts[i]))
	}

	sup.Dimensions = dims
	sup.OverallScore = overall
	sup.RiskLevel = level
	sup.DataCompleteness = completeness
	d.emitter.Emit(ctx, events.New(events.TypeRiskRecomputed, events.RiskRecomputedPayload{
		Delta:    delta,
		Supplier: *sup,
	}))

	d.log.Info("supplier recomputed",
		zap.String("supplier_id", supplierID),
		zap.Int("previous_score", delta.PreviousScore),
		zap.Int("new_score", delta.NewScore),
		zap.String("level", string(level)),
		zap.Int("alerts", len(alerts)))
	return &RecomputeResult{Delta: delta, Alerts: alerts}, nil
}

// BatchResult summarizes a portfolio-wide recompute.
type BatchResult struct {
	Updated       int               `json:"updated"`
	AlertsCreated int               `json:"alerts_created"`
	Overdue       int               `json:"overdue"`
	Failures      map[string]string `json:"failures,omitempty"`
}

// RecomputeAll recomputes every supplier with bounded concurrency and then
// sweeps for overdue tasks. One supplier failing does not stop the batch;
// failures are collected per supplier.
func (d *Driver) RecomputeAll(ctx context.Context) (*BatchResult, error) {
	const pageSize = 500
	var suppliers []model.Supplier
	for offset := 0; ; offset += pageSize {
		page, err := d.store.ListSuppliers(ctx, pageSize, offset)
		if err != nil {
			return nil, eris.Wrap(err, "engine: list suppliers for batch")
		}
		suppliers = append(suppliers, page...)
		if len(page) < pageSize {
			break
		}
	}

	res := &BatchResult{Failures: make(map[string]string)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for _, sup := range suppliers {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			out, err := d.RecomputeOne(gctx, sup.ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				d.log.Warn("recompute failed",
					zap.String("supplier_id", sup.ID),
					zap.Error(err))
				res.Failures[sup.ID] = err.Error()
				return nil
			}
			res.Updated++
			res.AlertsCreated += len(out.Alerts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, eris.Wrap(err, "engine: batch recompute")
	}
	if err := ctx.Err(); err != nil {
		return res, eris.Wrap(err, "engine: batch recompute cancelled")
	}

	overdueAlerts, err := d.SweepOverdue(ctx)
	if err != nil {
		return res, err
	}
	res.Overdue = overdueAlerts
	res.AlertsCreated += overdueAlerts

	d.log.Info("batch recompute finished",
		zap.Int("updated", res.Updated),
		zap.Int("failures", len(res.Failures)),
		zap.Int("alerts", res.AlertsCreated),
		zap.Int("overdue", res.Overdue))
	return res, nil
}

// SweepOverdue flips past-due open tasks to overdue and raises a warning
// alert for each. Returns the number of tasks swept.
func (d *Driver) SweepOverdue(ctx context.Context) (int, error) {
	now := d.now().UTC()
	tasks, err := d.store.MarkOverdue(ctx, now)
	if err != nil {
		return 0, eris.Wrap(err, "engine: mark overdue")
	}
	for _, task := range tasks {
		alert := model.Alert{
			ID:          uuid.NewString(),
			SupplierID:  task.SupplierID,
			Type:        model.AlertTaskOverdue,
			Severity:    model.SeverityWarning,
			Title:       task.Title,
			Description: "Task was due " + task.DueDate.Format(time.DateOnly) + " and has not been completed",
			Source:      risk.SourceRiskEngine,
			Status:      model.AlertStatusOpen,
			CreatedAt:   now,
		}
		if err := d.store.CreateAlert(ctx, &alert); err != nil {
			return 0, eris.Wrap(err, "engine: persist overdue alert")
		}
		d.emitter.Emit(ctx, events.New(events.TypeAlertCreated, alert))
	}
	return len(tasks), nil
}

// AssessmentResult is everything one completed assessment produced.
type AssessmentResult struct {
	Task      model.Task            `json:"task"`
	Cascade   *verify.CascadeResult `json:"cascade"`
	Recompute *RecomputeResult      `json:"recompute"`
}

// OnAssessmentCompleted records questionnaire responses, runs the
// verification rule cascade, and recomputes the supplier's risk. responses
// may be nil when the task was already completed out of band.
func (d *Driver) OnAssessmentCompleted(ctx context.Context, taskID string, responses map[string]string) (*AssessmentResult, error) {
	if d.verify == nil {
		return nil, eris.New("engine: no verification engine configured")
	}

	var task *model.Task
	var err error
	if responses != nil {
		task, err = d.store.CompleteTask(ctx, taskID, responses)
	} else {
		task, err = d.store.GetTask(ctx, taskID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "engine: load assessment")
	}
	if task.Type != model.TaskQuestionnaire {
		return nil, eris.Errorf("engine: task %s is a %s, not a questionnaire", taskID, task.Type)
	}
	if task.Status != model.TaskStatusCompleted {
		return nil, eris.Errorf("engine: assessment %s is %s, not completed", taskID, task.Status)
	}

	cascade, err := d.verify.ProcessAssessment(ctx, *task)
	if err != nil {
		return nil, eris.Wrap(err, "engine: assessment cascade")
	}

	recompute, err := d.RecomputeOne(ctx, task.SupplierID)
	if err != nil {
		return nil, eris.Wrap(err, "engine: recompute after assessment")
	}

	return &AssessmentResult{Task: *task, Cascade: cascade, Recompute: recompute}, nil
}
