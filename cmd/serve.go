package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/supplier-risk/internal/model"
	"github.com/sells-group/supplier-risk/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server for assessments and recomputes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(ctx, env),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter wires the webhook and read endpoints. serverCtx bounds
// background batch recomputes, not individual requests.
func newRouter(serverCtx context.Context, env *engineEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/webhook/assessment-completed", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			TaskID    string            `json:"task_id"`
			Responses map[string]string `json:"responses"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.TaskID == "" {
			writeError(w, http.StatusBadRequest, "task_id is required")
			return
		}

		res, err := env.Driver.OnAssessmentCompleted(req.Context(), body.TaskID, body.Responses)
		if err != nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, model.ErrNotFound):
				status = http.StatusNotFound
			case errors.Is(err, model.ErrTerminalTask):
				status = http.StatusConflict
			}
			zap.L().Error("assessment webhook failed",
				zap.String("task_id", body.TaskID),
				zap.Error(err),
			)
			writeError(w, status, eris.ToString(err, false))
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"task_id":        body.TaskID,
			"cascade_tasks":  len(res.Cascade.Tasks),
			"cascade_alerts": len(res.Cascade.Alerts),
			"new_score":      res.Recompute.Delta.NewScore,
			"risk_level":     res.Recompute.Delta.NewLevel,
		})
	})

	r.Post("/webhook/recompute", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			SupplierID string `json:"supplier_id"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if body.SupplierID != "" {
			res, err := env.Driver.RecomputeOne(req.Context(), body.SupplierID)
			if err != nil {
				status := http.StatusInternalServerError
				if errors.Is(err, model.ErrNotFound) {
					status = http.StatusNotFound
				}
				writeError(w, status, eris.ToString(err, false))
				return
			}
			writeJSON(w, http.StatusOK, res)
			return
		}

		go func() {
			res, err := env.Driver.RecomputeAll(serverCtx)
			if err != nil {
				zap.L().Error("batch recompute failed", zap.Error(err))
				return
			}
			zap.L().Info("batch recompute complete",
				zap.Int("updated", res.Updated),
				zap.Int("alerts", res.AlertsCreated),
				zap.Int("overdue", res.Overdue),
			)
		}()
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	})

	r.Get("/suppliers/{id}", func(w http.ResponseWriter, req *http.Request) {
		sup, err := env.Store.GetSupplier(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				writeError(w, http.StatusNotFound, "supplier not found")
				return
			}
			writeError(w, http.StatusInternalServerError, eris.ToString(err, false))
			return
		}
		writeJSON(w, http.StatusOK, sup)
	})

	r.Get("/suppliers/{id}/tasks", func(w http.ResponseWriter, req *http.Request) {
		tasks, err := env.Store.ListTasks(req.Context(), store.TaskFilter{
			SupplierID: chi.URLParam(req, "id"),
			Status:     model.TaskStatus(req.URL.Query().Get("status")),
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, eris.ToString(err, false))
			return
		}
		writeJSON(w, http.StatusOK, tasks)
	})

	r.Get("/suppliers/{id}/alerts", func(w http.ResponseWriter, req *http.Request) {
		alerts, err := env.Store.ListAlerts(req.Context(), store.AlertFilter{
			SupplierID: chi.URLParam(req, "id"),
			Severity:   model.AlertSeverity(req.URL.Query().Get("severity")),
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, eris.ToString(err, false))
			return
		}
		writeJSON(w, http.StatusOK, alerts)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
