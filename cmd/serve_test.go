package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/supplier-risk/internal/engine"
	"github.com/sells-group/supplier-risk/internal/model"
	"github.com/sells-group/supplier-risk/internal/risk"
	"github.com/sells-group/supplier-risk/internal/store"
	"github.com/sells-group/supplier-risk/internal/verify"
)

func newTestEnv(t *testing.T) *engineEnv {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	tables := risk.DefaultTables()
	sim := verify.NewSimulator(st, verify.NewSimulatedRegistry(tables, 0), nil)
	verifier := verify.NewEngine(verify.DefaultRules(), st, nil, sim)
	driver := engine.New(st, risk.NewCalculator(tables), verifier, nil, engine.Options{})
	return &engineEnv{Store: st, Driver: driver, Simulator: sim}
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServeHealth(t *testing.T) {
	env := newTestEnv(t)
	handler := newRouter(context.Background(), env)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeAssessmentWebhook(t *testing.T) {
	env := newTestEnv(t)
	handler := newRouter(context.Background(), env)
	ctx := context.Background()

	sup := model.Supplier{Name: "Acme", Country: "Germany", IndustryCode: "C28"}
	task, err := env.Driver.RegisterSupplier(ctx, &sup)
	require.NoError(t, err)

	rec := postJSON(t, handler, "/webhook/assessment-completed", map[string]any{
		"task_id":   task.ID,
		"responses": map[string]string{"code_of_conduct_signed": "yes"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		NewScore  int    `json:"new_score"`
		RiskLevel string `json:"risk_level"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(model.RiskLevelMedium), resp.RiskLevel)
	assert.Positive(t, resp.NewScore)
}

func TestServeAssessmentWebhookErrors(t *testing.T) {
	env := newTestEnv(t)
	handler := newRouter(context.Background(), env)

	rec := postJSON(t, handler, "/webhook/assessment-completed", map[string]any{
		"task_id": uuid.NewString(),
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = postJSON(t, handler, "/webhook/assessment-completed", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeRecomputeWebhook(t *testing.T) {
	env := newTestEnv(t)
	handler := newRouter(context.Background(), env)
	ctx := context.Background()

	sup := model.Supplier{
		ID:           uuid.NewString(),
		Name:         "Acme",
		Country:      "Germany",
		IndustryCode: "C28",
		Dimensions:   model.NeutralDimensions(),
		OverallScore: 50,
		RiskLevel:    model.RiskLevelMedium,
	}
	require.NoError(t, env.Store.CreateSupplier(ctx, &sup))

	rec := postJSON(t, handler, "/webhook/recompute", map[string]string{"supplier_id": sup.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	var res engine.RecomputeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 40, res.Delta.NewScore)

	rec = postJSON(t, handler, "/webhook/recompute", map[string]string{"supplier_id": uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Empty body kicks off a batch run and returns immediately.
	rec = postJSON(t, handler, "/webhook/recompute", map[string]string{})
	assert.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		got, err := env.Store.GetSupplier(ctx, sup.ID)
		return err == nil && got.OverallScore == 40
	}, 2*time.Second, 20*time.Millisecond)
}

func TestServeSupplierReads(t *testing.T) {
	env := newTestEnv(t)
	handler := newRouter(context.Background(), env)
	ctx := context.Background()

	sup := model.Supplier{Name: "Acme", Country: "Germany", IndustryCode: "C28"}
	_, err := env.Driver.RegisterSupplier(ctx, &sup)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/suppliers/"+sup.ID, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/suppliers/"+sup.ID+"/tasks?status=pending", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var tasks []model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, model.TaskQuestionnaire, tasks[0].Type)

	req = httptest.NewRequest(http.MethodGet, "/suppliers/"+uuid.NewString(), nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
