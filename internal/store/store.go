// Package store persists suppliers, sites, tasks, and alerts. Two backends
// are provided: SQLite for single-node and test use, PostgreSQL for shared
// deployments.
package store

import (
	"context"
	"time"

	"github.com/sells-group/supplier-risk/internal/model"
)

// TaskFilter specifies criteria for listing tasks.
type TaskFilter struct {
	SupplierID string            `json:"supplier_id,omitempty"`
	Status     model.TaskStatus  `json:"status,omitempty"`
	Type       model.TaskType    `json:"type,omitempty"`
	Limit      int               `json:"limit,omitempty"`
	Offset     int               `json:"offset,omitempty"`
}

// AlertFilter specifies criteria for listing alerts.
type AlertFilter struct {
	SupplierID string              `json:"supplier_id,omitempty"`
	Severity   model.AlertSeverity `json:"severity,omitempty"`
	Status     model.AlertStatus   `json:"status,omitempty"`
	Limit      int                 `json:"limit,omitempty"`
	Offset     int                 `json:"offset,omitempty"`
}

// Store defines the persistence interface for the risk engine.
type Store interface {
	// Suppliers
	CreateSupplier(ctx context.Context, s *model.Supplier) error
	GetSupplier(ctx context.Context, id string) (*model.Supplier, error)
	ListSuppliers(ctx context.Context, limit, offset int) ([]model.Supplier, error)
	UpsertSuppliers(ctx context.Context, suppliers []model.Supplier) (int, error)
	UpdateSupplierRisk(ctx context.Context, id string, dims model.Dimensions, overall int, level model.RiskLevel, completeness int) error

	// Sites
	CreateSite(ctx context.Context, site *model.Site) error
	ListSites(ctx context.Context, supplierID string) ([]model.Site, error)

	// Tasks
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, id string) (*model.Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	UpdateTaskStatus(ctx context.Context, id string, status model.TaskStatus) error
	CompleteTask(ctx context.Context, id string, responses map[string]string) (*model.Task, error)
	SetVerificationResult(ctx context.Context, id string, result *model.VerificationResult, status model.TaskStatus) error
	MarkOverdue(ctx context.Context, now time.Time) ([]model.Task, error)

	// Alerts
	CreateAlert(ctx context.Context, alert *model.Alert) error
	ListAlerts(ctx context.Context, filter AlertFilter) ([]model.Alert, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
