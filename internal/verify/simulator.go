package verify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/supplier-risk/internal/events"
	"github.com/sells-group/supplier-risk/internal/model"
	"github.com/sells-group/supplier-risk/internal/resilience"
)

// defaultCheckTimeout bounds one automated check end to end, retries
// included.
const defaultCheckTimeout = 30 * time.Second

// verdictWriteTimeout bounds the verdict write-back. It runs on its own
// deadline so a check that burned its whole budget still gets recorded.
const verdictWriteTimeout = 5 * time.Second

// Outcome is the final state of one automated check.
type Outcome struct {
	Task   model.Task
	Passed bool
	Err    error
}

// Check is a handle on an in-flight automated verification. The task row is
// updated and events are emitted whether or not anyone waits on the handle.
type Check struct {
	TaskID string
	done   chan Outcome
}

// Done returns a channel that receives the outcome exactly once and is then
// closed.
func (c *Check) Done() <-chan Outcome {
	return c.done
}

// Wait blocks until the check completes or ctx is cancelled.
func (c *Check) Wait(ctx context.Context) (Outcome, error) {
	select {
	case out, ok := <-c.done:
		if !ok {
			return Outcome{}, eris.New("verify: check outcome already consumed")
		}
		return out, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Simulator runs database_check tasks asynchronously against a registry
// client, writes the verdict back to the task, and raises alerts on failed
// checks.
type Simulator struct {
	store    TaskStore
	registry RegistryClient
	emitter  events.Emitter
	retry    resilience.RetryConfig
	timeout  time.Duration
	log      *zap.Logger
	wg       sync.WaitGroup
}

// SimulatorOption adjusts simulator behavior.
type SimulatorOption func(*Simulator)

// WithRetry overrides the retry policy for registry calls.
func WithRetry(cfg resilience.RetryConfig) SimulatorOption {
	return func(s *Simulator) { s.retry = cfg }
}

// WithCheckTimeout overrides the end-to-end budget of one check.
func WithCheckTimeout(d time.Duration) SimulatorOption {
	return func(s *Simulator) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewSimulator builds a check simulator.
func NewSimulator(store TaskStore, registry RegistryClient, emitter events.Emitter, opts ...SimulatorOption) *Simulator {
	if emitter == nil {
		emitter = events.Nop{}
	}
	s := &Simulator{
		store:    store,
		registry: registry,
		emitter:  emitter,
		retry:    resilience.DefaultRetryConfig(),
		timeout:  defaultCheckTimeout,
		log:      zap.L().With(zap.String("component", "verify.simulator")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch starts a check in the background and returns immediately. The
// check outlives the caller's context; only its deadline is detached, values
// are kept for tracing.
func (s *Simulator) Dispatch(ctx context.Context, task model.Task, supplier model.Supplier) *Check {
	check := &Check{TaskID: task.ID, done: make(chan Outcome, 1)}
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		out := s.run(runCtx, task, supplier)
		check.done <- out
		close(check.done)
	}()
	return check
}

// Drain blocks until every dispatched check has finished. Used at shutdown.
func (s *Simulator) Drain() {
	s.wg.Wait()
}

func (s *Simulator) run(ctx context.Context, task model.Task, supplier model.Supplier) Outcome {
	log := s.log.With(
		zap.String("task_id", task.ID),
		zap.String("supplier_id", task.SupplierID),
		zap.String("verification_type", task.VerificationType))

	if err := s.store.UpdateTaskStatus(ctx, task.ID, model.TaskStatusInProgress); err != nil {
		log.Error("failed to mark check in progress", zap.Error(err))
		return Outcome{Task: task, Err: eris.Wrap(err, "verify: mark check in progress")}
	}
	task.Status = model.TaskStatusInProgress

	result, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) (*model.VerificationResult, error) {
		return s.registry.Check(ctx, task.VerificationType, supplier)
	})
	if err != nil {
		// The check could not be performed. The task fails with a
		// diagnostic rather than staying stuck in progress.
		result = &model.VerificationResult{
			CheckType:  task.VerificationType,
			Passed:     false,
			Diagnostic: eris.ToString(err, false),
			CheckedAt:  time.Now().UTC(),
		}
		err = eris.Wrap(model.ErrExternalCheck, task.VerificationType)
		log.Warn("external check unavailable", zap.Error(err))
	} else {
		result.CheckType = task.VerificationType
		result.Passed = !result.Adverse()
		result.CheckedAt = time.Now().UTC()
	}

	status := model.TaskStatusVerified
	if !result.Passed {
		status = model.TaskStatusFailed
	}

	// ctx may already be past its deadline when the check timed out, and the
	// stores honor cancellation. The verdict must still land, or the task
	// stays stuck in_progress.
	writeCtx, cancelWrite := context.WithTimeout(context.WithoutCancel(ctx), verdictWriteTimeout)
	defer cancelWrite()

	if serr := s.store.SetVerificationResult(writeCtx, task.ID, result, status); serr != nil {
		log.Error("failed to record verification result", zap.Error(serr))
		return Outcome{Task: task, Err: eris.Wrap(serr, "verify: record verification result")}
	}
	task.Status = status
	task.VerificationResult = result

	if !result.Passed {
		if aerr := s.raiseFailureAlert(writeCtx, task, result); aerr != nil {
			log.Error("failed to create verification alert", zap.Error(aerr))
		}
	}

	s.emitter.Emit(writeCtx, events.New(events.TypeVerificationCompleted, events.VerificationCompletedPayload{
		Task:   task,
		Passed: result.Passed,
	}))
	log.Info("check completed",
		zap.Bool("passed", result.Passed),
		zap.Int("findings", len(result.Findings)))
	return Outcome{Task: task, Passed: result.Passed, Err: err}
}

func (s *Simulator) raiseFailureAlert(ctx context.Context, task model.Task, result *model.VerificationResult) error {
	severity := model.SeverityWarning
	if result.HighRisk() {
		severity = model.SeverityCritical
	}
	desc := "Automated check " + task.VerificationType + " failed"
	if result.Diagnostic != "" {
		desc += ": " + result.Diagnostic
	}
	for _, f := range result.Findings {
		desc += "; " + f.Code
	}
	alert := model.Alert{
		ID:          uuid.NewString(),
		SupplierID:  task.SupplierID,
		Type:        model.AlertVerificationFailed,
		Severity:    severity,
		Title:       task.Title,
		Description: desc,
		Source:      SourceVerification,
		Status:      model.AlertStatusOpen,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.CreateAlert(ctx, &alert); err != nil {
		return err
	}
	s.emitter.Emit(ctx, events.New(events.TypeAlertCreated, alert))
	return nil
}
