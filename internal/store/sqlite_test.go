package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/supplier-risk/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func seedSupplier(t *testing.T, s *SQLiteStore) model.Supplier {
	t.Helper()
	sup := model.Supplier{
		ID:           uuid.NewString(),
		Name:         "Acme Components",
		Country:      "Germany",
		IndustryCode: "C28",
		Dimensions:   model.NeutralDimensions(),
		OverallScore: 50,
		RiskLevel:    model.RiskLevelMedium,
	}
	require.NoError(t, s.CreateSupplier(context.Background(), &sup))
	return sup
}

func TestSQLiteSupplierRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sup := seedSupplier(t, s)

	got, err := s.GetSupplier(ctx, sup.ID)
	require.NoError(t, err)
	assert.Equal(t, sup.Name, got.Name)
	assert.Equal(t, sup.Country, got.Country)
	assert.Equal(t, model.NeutralDimensions(), got.Dimensions)
	assert.Equal(t, model.RiskLevelMedium, got.RiskLevel)

	_, err = s.GetSupplier(ctx, "missing")
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrNotFound))
}

func TestSQLiteUpsertSuppliers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sup := seedSupplier(t, s)

	require.NoError(t, s.UpdateSupplierRisk(ctx, sup.ID, sup.Dimensions, 68, model.RiskLevelHigh, 70))

	n, err := s.UpsertSuppliers(ctx, []model.Supplier{
		{ID: sup.ID, Name: "Acme Components GmbH", Country: "Germany", IndustryCode: "C28", Dimensions: model.NeutralDimensions()},
		{ID: uuid.NewString(), Name: "Globex", Country: "France", IndustryCode: "C20", Dimensions: model.NeutralDimensions()},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.GetSupplier(ctx, sup.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Components GmbH", got.Name)
	assert.Equal(t, 68, got.OverallScore, "upsert must not clobber computed risk")
	assert.Equal(t, model.RiskLevelHigh, got.RiskLevel)

	all, err := s.ListSuppliers(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLiteUpdateSupplierRisk(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sup := seedSupplier(t, s)

	dims := sup.Dimensions
	dims.Chemical = 80
	require.NoError(t, s.UpdateSupplierRisk(ctx, sup.ID, dims, 61, model.RiskLevelHigh, 40))

	got, err := s.GetSupplier(ctx, sup.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, got.Dimensions.Chemical)
	assert.Equal(t, 61, got.OverallScore)
	assert.Equal(t, model.RiskLevelHigh, got.RiskLevel)
	assert.Equal(t, 40, got.DataCompleteness)

	err = s.UpdateSupplierRisk(ctx, "missing", dims, 61, model.RiskLevelHigh, 40)
	assert.True(t, eris.Is(err, model.ErrNotFound))
}

func TestSQLiteSites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sup := seedSupplier(t, s)

	site := model.Site{
		ID:             uuid.NewString(),
		SupplierID:     sup.ID,
		Name:           "Plant 1",
		Country:        "Poland",
		FacilityType:   "factory",
		Certifications: []string{"ISO14001", "SA8000"},
	}
	require.NoError(t, s.CreateSite(ctx, &site))

	sites, err := s.ListSites(ctx, sup.ID)
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, "Poland", sites[0].Country)
	assert.Equal(t, []string{"ISO14001", "SA8000"}, sites[0].Certifications)

	sites, err = s.ListSites(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, sites)
}

func TestSQLiteTaskLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sup := seedSupplier(t, s)

	task := model.Task{
		ID:         uuid.NewString(),
		SupplierID: sup.ID,
		Type:       model.TaskQuestionnaire,
		Category:   model.CategoryChemicalContent,
		Title:      "Chemical content questionnaire",
		Status:     model.TaskStatusPending,
		DueDate:    time.Now().UTC().AddDate(0, 0, 14),
	}
	require.NoError(t, s.CreateTask(ctx, &task))

	require.NoError(t, s.UpdateTaskStatus(ctx, task.ID, model.TaskStatusSent))

	completed, err := s.CompleteTask(ctx, task.ID, map[string]string{"uses_pfas": "yes"})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, completed.Status)
	assert.Equal(t, "yes", completed.Responses["uses_pfas"])

	result := &model.VerificationResult{CheckType: "pfas_registry", Passed: true, CheckedAt: time.Now().UTC()}
	require.NoError(t, s.SetVerificationResult(ctx, task.ID, result, model.TaskStatusVerified))

	got, err := s.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusVerified, got.Status)
	require.NotNil(t, got.VerificationResult)
	assert.True(t, got.VerificationResult.Passed)

	// Terminal tasks are immutable.
	err = s.UpdateTaskStatus(ctx, task.ID, model.TaskStatusPending)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrTerminalTask))

	_, err = s.CompleteTask(ctx, task.ID, nil)
	assert.True(t, eris.Is(err, model.ErrTerminalTask))

	err = s.UpdateTaskStatus(ctx, "missing", model.TaskStatusSent)
	assert.True(t, eris.Is(err, model.ErrNotFound))
}

func TestSQLiteListTasksFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sup := seedSupplier(t, s)
	other := seedSupplier(t, s)

	for i, spec := range []struct {
		supplierID string
		typ        model.TaskType
		status     model.TaskStatus
	}{
		{sup.ID, model.TaskQuestionnaire, model.TaskStatusPending},
		{sup.ID, model.TaskDatabaseCheck, model.TaskStatusVerified},
		{other.ID, model.TaskQuestionnaire, model.TaskStatusPending},
	} {
		task := model.Task{
			ID:         uuid.NewString(),
			SupplierID: spec.supplierID,
			Type:       spec.typ,
			Status:     spec.status,
			Title:      "task",
			DueDate:    time.Now().UTC().AddDate(0, 0, i+1),
		}
		require.NoError(t, s.CreateTask(ctx, &task))
	}

	tasks, err := s.ListTasks(ctx, TaskFilter{SupplierID: sup.ID})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	tasks, err = s.ListTasks(ctx, TaskFilter{SupplierID: sup.ID, Status: model.TaskStatusPending})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, model.TaskQuestionnaire, tasks[0].Type)

	tasks, err = s.ListTasks(ctx, TaskFilter{Type: model.TaskQuestionnaire})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestSQLiteMarkOverdue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sup := seedSupplier(t, s)
	now := time.Now().UTC()

	past := model.Task{
		ID: uuid.NewString(), SupplierID: sup.ID, Type: model.TaskDocumentation,
		Status: model.TaskStatusPending, DueDate: now.AddDate(0, 0, -2),
	}
	future := model.Task{
		ID: uuid.NewString(), SupplierID: sup.ID, Type: model.TaskDocumentation,
		Status: model.TaskStatusPending, DueDate: now.AddDate(0, 0, 2),
	}
	done := model.Task{
		ID: uuid.NewString(), SupplierID: sup.ID, Type: model.TaskDocumentation,
		Status: model.TaskStatusCompleted, DueDate: now.AddDate(0, 0, -2),
	}
	for _, task := range []*model.Task{&past, &future, &done} {
		require.NoError(t, s.CreateTask(ctx, task))
	}

	overdue, err := s.MarkOverdue(ctx, now)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, past.ID, overdue[0].ID)
	assert.Equal(t, model.TaskStatusOverdue, overdue[0].Status)

	got, err := s.GetTask(ctx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusPending, got.Status)

	got, err = s.GetTask(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, got.Status)

	// Idempotent: a second sweep finds nothing.
	overdue, err = s.MarkOverdue(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, overdue)
}

func TestSQLiteAlerts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sup := seedSupplier(t, s)

	for _, sev := range []model.AlertSeverity{model.SeverityWarning, model.SeverityCritical} {
		alert := model.Alert{
			ID:         uuid.NewString(),
			SupplierID: sup.ID,
			Type:       model.AlertScoreIncrease,
			Severity:   sev,
			Title:      "score moved",
			Source:     "risk_engine",
			Status:     model.AlertStatusOpen,
		}
		require.NoError(t, s.CreateAlert(ctx, &alert))
	}

	alerts, err := s.ListAlerts(ctx, AlertFilter{SupplierID: sup.ID})
	require.NoError(t, err)
	assert.Len(t, alerts, 2)

	alerts, err = s.ListAlerts(ctx, AlertFilter{Severity: model.SeverityCritical})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.SeverityCritical, alerts[0].Severity)
}
