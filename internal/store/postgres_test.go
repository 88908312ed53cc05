package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/supplier-risk/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewPostgresFromPool(mock), mock
}

func supplierRow(t *testing.T, sup model.Supplier) *pgxmock.Rows {
	t.Helper()
	dimsJSON, err := json.Marshal(sup.Dimensions)
	require.NoError(t, err)
	return pgxmock.NewRows([]string{
		"id", "name", "country", "industry_code", "dimensions",
		"overall_score", "risk_level", "data_completeness", "created_at", "updated_at",
	}).AddRow(sup.ID, sup.Name, sup.Country, sup.IndustryCode, dimsJSON,
		sup.OverallScore, string(sup.RiskLevel), sup.DataCompleteness, sup.CreatedAt, sup.UpdatedAt)
}

func TestPostgresGetSupplier(t *testing.T) {
	s, mock := newMockStore(t)
	sup := model.Supplier{
		ID: "sup-1", Name: "Acme", Country: "Germany", IndustryCode: "C28",
		Dimensions: model.NeutralDimensions(), OverallScore: 50,
		RiskLevel: model.RiskLevelMedium, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	mock.ExpectQuery(`SELECT id, name, country, industry_code, dimensions`).
		WithArgs("sup-1").
		WillReturnRows(supplierRow(t, sup))

	got, err := s.GetSupplier(context.Background(), "sup-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, model.NeutralDimensions(), got.Dimensions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetSupplierNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT id, name, country, industry_code, dimensions`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetSupplier(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrNotFound))
}

func TestPostgresUpdateSupplierRisk(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE suppliers SET dimensions`).
		WithArgs(pgxmock.AnyArg(), 61, "high", 70, pgxmock.AnyArg(), "sup-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateSupplierRisk(context.Background(), "sup-1", model.NeutralDimensions(), 61, model.RiskLevelHigh, 70)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateTaskStatusTerminal(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE tasks SET status`).
		WithArgs("pending", pgxmock.AnyArg(), "task-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT status FROM tasks`).
		WithArgs("task-1").
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow("verified"))

	err := s.UpdateTaskStatus(context.Background(), "task-1", model.TaskStatusPending)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrTerminalTask))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateTaskStatusNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE tasks SET status`).
		WithArgs("sent", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT status FROM tasks`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	err := s.UpdateTaskStatus(context.Background(), "missing", model.TaskStatusSent)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrNotFound))
}

func TestPostgresCreateAlert(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO alerts`).
		WithArgs("alert-1", "sup-1", "score_increase", "warning", "score moved",
			"overall 50 to 68", "risk_engine", "open", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.CreateAlert(context.Background(), &model.Alert{
		ID: "alert-1", SupplierID: "sup-1", Type: model.AlertScoreIncrease,
		Severity: model.SeverityWarning, Title: "score moved",
		Description: "overall 50 to 68", Source: "risk_engine", Status: model.AlertStatusOpen,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertSuppliers(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_suppliers"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_suppliers"}, []string{
		"id", "name", "country", "industry_code", "dimensions",
		"overall_score", "risk_level", "data_completeness", "created_at", "updated_at",
	}).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "suppliers"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := s.UpsertSuppliers(context.Background(), []model.Supplier{
		{ID: "a", Name: "Acme", Country: "Germany", Dimensions: model.NeutralDimensions()},
		{ID: "b", Name: "Globex", Country: "France", Dimensions: model.NeutralDimensions()},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMarkOverdue(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	due := now.AddDate(0, 0, -1)
	mock.ExpectQuery(`UPDATE tasks SET status = 'overdue'`).
		WithArgs(now).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "supplier_id", "type", "category", "title", "description", "status", "due_date",
			"responses", "verification_type", "required_documents", "triggered_by", "verification_result",
			"created_at", "updated_at",
		}).AddRow("task-1", "sup-1", "documentation", "", "docs", "", "overdue", due,
			[]byte(nil), "", []byte(nil), "", []byte(nil), now, now))

	tasks, err := s.MarkOverdue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, model.TaskStatusOverdue, tasks[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
