package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/supplier-risk/internal/db"
	"github.com/sells-group/supplier-risk/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// the hottest store operations.
var preparedStatements = map[string]string{
	"get_supplier":         `SELECT id, name, country, industry_code, dimensions, overall_score, risk_level, data_completeness, created_at, updated_at FROM suppliers WHERE id = $1`,
	"update_supplier_risk": `UPDATE suppliers SET dimensions = $1, overall_score = $2, risk_level = $3, data_completeness = $4, updated_at = $5 WHERE id = $6`,
	"get_task":             pgSelectTask + ` WHERE id = $1`,
	"update_task_status":   `UPDATE tasks SET status = $1, updated_at = $2 WHERE id = $3 AND status NOT IN ('verified', 'failed')`,
	"insert_alert":         `INSERT INTO alerts (id, supplier_id, type, severity, title, description, source, status, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS suppliers (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	country           TEXT NOT NULL,
	industry_code     TEXT NOT NULL DEFAULT '',
	dimensions        JSONB NOT NULL,
	overall_score     INTEGER NOT NULL DEFAULT 50,
	risk_level        TEXT NOT NULL DEFAULT 'medium',
	data_completeness INTEGER NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sites (
	id             TEXT PRIMARY KEY,
	supplier_id    TEXT NOT NULL REFERENCES suppliers(id),
	name           TEXT NOT NULL DEFAULT '',
	country        TEXT NOT NULL,
	facility_type  TEXT NOT NULL DEFAULT '',
	certifications JSONB NOT NULL DEFAULT '[]',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tasks (
	id                  TEXT PRIMARY KEY,
	supplier_id         TEXT NOT NULL REFERENCES suppliers(id),
	type                TEXT NOT NULL,
	category            TEXT NOT NULL DEFAULT '',
	title               TEXT NOT NULL DEFAULT '',
	description         TEXT NOT NULL DEFAULT '',
	status              TEXT NOT NULL DEFAULT 'pending',
	due_date            TIMESTAMPTZ NOT NULL,
	responses           JSONB,
	verification_type   TEXT NOT NULL DEFAULT '',
	required_documents  JSONB,
	triggered_by        TEXT NOT NULL DEFAULT '',
	verification_result JSONB,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS alerts (
	id          TEXT PRIMARY KEY,
	supplier_id TEXT NOT NULL REFERENCES suppliers(id),
	type        TEXT NOT NULL,
	severity    TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'open',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sites_supplier_id ON sites(supplier_id);
CREATE INDEX IF NOT EXISTS idx_tasks_supplier_id ON tasks(supplier_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_status_due ON tasks(status, due_date);
CREATE INDEX IF NOT EXISTS idx_alerts_supplier_id ON alerts(supplier_id);
CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts(status);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateSupplier(ctx context.Context, sup *model.Supplier) error {
	now := time.Now().UTC()
	if sup.CreatedAt.IsZero() {
		sup.CreatedAt = now
	}
	sup.UpdatedAt = now

	dimsJSON, err := json.Marshal(sup.Dimensions)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal dimensions")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO suppliers (id, name, country, industry_code, dimensions, overall_score, risk_level, data_completeness, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sup.ID, sup.Name, sup.Country, sup.IndustryCode, dimsJSON,
		sup.OverallScore, string(sup.RiskLevel), sup.DataCompleteness, sup.CreatedAt, sup.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: insert supplier %s", sup.ID)
}

func (s *PostgresStore) GetSupplier(ctx context.Context, id string) (*model.Supplier, error) {
	var sup model.Supplier
	var dimsJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, country, industry_code, dimensions, overall_score, risk_level, data_completeness, created_at, updated_at
		 FROM suppliers WHERE id = $1`, id,
	).Scan(&sup.ID, &sup.Name, &sup.Country, &sup.IndustryCode, &dimsJSON,
		&sup.OverallScore, &sup.RiskLevel, &sup.DataCompleteness, &sup.CreatedAt, &sup.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(model.ErrNotFound, "supplier %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get supplier %s", id)
	}
	if err := json.Unmarshal(dimsJSON, &sup.Dimensions); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal dimensions")
	}
	return &sup, nil
}

func (s *PostgresStore) ListSuppliers(ctx context.Context, limit, offset int) ([]model.Supplier, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, country, industry_code, dimensions, overall_score, risk_level, data_completeness, created_at, updated_at
		 FROM suppliers ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list suppliers")
	}
	defer rows.Close()

	var suppliers []model.Supplier
	for rows.Next() {
		var sup model.Supplier
		var dimsJSON []byte
		if err := rows.Scan(&sup.ID, &sup.Name, &sup.Country, &sup.IndustryCode, &dimsJSON,
			&sup.OverallScore, &sup.RiskLevel, &sup.DataCompleteness, &sup.CreatedAt, &sup.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan supplier")
		}
		if err := json.Unmarshal(dimsJSON, &sup.Dimensions); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal dimensions")
		}
		suppliers = append(suppliers, sup)
	}
	return suppliers, eris.Wrap(rows.Err(), "postgres: list suppliers iterate")
}

// UpsertSuppliers bulk-loads suppliers through a temp table. Risk fields of
// existing rows are left untouched; recompute owns those.
func (s *PostgresStore) UpsertSuppliers(ctx context.Context, suppliers []model.Supplier) (int, error) {
	if len(suppliers) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	rows := make([][]any, 0, len(suppliers))
	for _, sup := range suppliers {
		dimsJSON, err := json.Marshal(sup.Dimensions)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal dimensions")
		}
		rows = append(rows, []any{
			sup.ID, sup.Name, sup.Country, sup.IndustryCode, dimsJSON,
			sup.OverallScore, string(sup.RiskLevel), sup.DataCompleteness, now, now,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table: "suppliers",
		Columns: []string{
			"id", "name", "country", "industry_code", "dimensions",
			"overall_score", "risk_level", "data_completeness", "created_at", "updated_at",
		},
		ConflictKeys: []string{"id"},
		UpdateCols:   []string{"name", "country", "industry_code", "updated_at"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert suppliers")
	}
	return int(n), nil
}

func (s *PostgresStore) UpdateSupplierRisk(ctx context.Context, id string, dims model.Dimensions, overall int, level model.RiskLevel, completeness int) error {
	dimsJSON, err := json.Marshal(dims)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal dimensions")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE suppliers SET dimensions = $1, overall_score = $2, risk_level = $3, data_completeness = $4, updated_at = $5
		 WHERE id = $6`,
		dimsJSON, overall, string(level), completeness, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update supplier risk %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(model.ErrNotFound, "supplier %s", id)
	}
	return nil
}

func (s *PostgresStore) CreateSite(ctx context.Context, site *model.Site) error {
	if site.CreatedAt.IsZero() {
		site.CreatedAt = time.Now().UTC()
	}
	certsJSON, err := json.Marshal(site.Certifications)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal certifications")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO sites (id, supplier_id, name, country, facility_type, certifications, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		site.ID, site.SupplierID, site.Name, site.Country, site.FacilityType, certsJSON, site.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert site %s", site.ID)
}

func (s *PostgresStore) ListSites(ctx context.Context, supplierID string) ([]model.Site, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, supplier_id, name, country, facility_type, certifications, created_at
		 FROM sites WHERE supplier_id = $1 ORDER BY created_at`, supplierID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sites")
	}
	defer rows.Close()

	var sites []model.Site
	for rows.Next() {
		var site model.Site
		var certsJSON []byte
		if err := rows.Scan(&site.ID, &site.SupplierID, &site.Name, &site.Country, &site.FacilityType, &certsJSON, &site.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan site")
		}
		if err := json.Unmarshal(certsJSON, &site.Certifications); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal certifications")
		}
		sites = append(sites, site)
	}
	return sites, eris.Wrap(rows.Err(), "postgres: list sites iterate")
}

const pgSelectTask = `SELECT id, supplier_id, type, category, title, description, status, due_date,
       responses, verification_type, required_documents, triggered_by, verification_result,
       created_at, updated_at FROM tasks`

func (s *PostgresStore) CreateTask(ctx context.Context, task *model.Task) error {
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	responsesJSON, err := marshalNullable(task.Responses)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal responses")
	}
	docsJSON, err := marshalNullable(task.RequiredDocuments)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal required documents")
	}
	resultJSON, err := marshalNullable(task.VerificationResult)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal verification result")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO tasks (id, supplier_id, type, category, title, description, status, due_date,
		                    responses, verification_type, required_documents, triggered_by, verification_result,
		                    created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		task.ID, task.SupplierID, string(task.Type), string(task.Category), task.Title, task.Description,
		string(task.Status), task.DueDate, responsesJSON, task.VerificationType, docsJSON, task.TriggeredBy,
		resultJSON, task.CreatedAt, task.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: insert task %s", task.ID)
}

func (s *PostgresStore) GetTask(ctx context.Context, id string) (*model.Task, error) {
	row := s.pool.QueryRow(ctx, pgSelectTask+` WHERE id = $1`, id)
	task, err := scanPgTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(model.ErrNotFound, "task %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get task %s", id)
	}
	return task, nil
}

func (s *PostgresStore) ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query := pgSelectTask + ` WHERE true`
	args := []any{}
	argIdx := 1

	if filter.SupplierID != "" {
		query += fmt.Sprintf(` AND supplier_id = $%d`, argIdx)
		args = append(args, filter.SupplierID)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Type != "" {
		query += fmt.Sprintf(` AND type = $%d`, argIdx)
		args = append(args, string(filter.Type))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tasks")
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanPgTask(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan task")
		}
		tasks = append(tasks, *task)
	}
	return tasks, eris.Wrap(rows.Err(), "postgres: list tasks iterate")
}

func (s *PostgresStore) UpdateTaskStatus(ctx context.Context, id string, status model.TaskStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET status = $1, updated_at = $2 WHERE id = $3 AND status NOT IN ('verified', 'failed')`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update task status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return s.explainNoRows(ctx, id)
	}
	return nil
}

func (s *PostgresStore) CompleteTask(ctx context.Context, id string, responses map[string]string) (*model.Task, error) {
	responsesJSON, err := json.Marshal(responses)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal responses")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET status = $1, responses = $2, updated_at = $3 WHERE id = $4 AND status NOT IN ('verified', 'failed')`,
		string(model.TaskStatusCompleted), responsesJSON, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: complete task %s", id)
	}
	if tag.RowsAffected() == 0 {
		return nil, s.explainNoRows(ctx, id)
	}
	return s.GetTask(ctx, id)
}

func (s *PostgresStore) SetVerificationResult(ctx context.Context, id string, result *model.VerificationResult, status model.TaskStatus) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal verification result")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET verification_result = $1, status = $2, updated_at = $3 WHERE id = $4 AND status NOT IN ('verified', 'failed')`,
		resultJSON, string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set verification result %s", id)
	}
	if tag.RowsAffected() == 0 {
		return s.explainNoRows(ctx, id)
	}
	return nil
}

func (s *PostgresStore) MarkOverdue(ctx context.Context, now time.Time) ([]model.Task, error) {
	rows, err := s.pool.Query(ctx,
		`UPDATE tasks SET status = 'overdue', updated_at = $1
		 WHERE status IN ('pending', 'sent') AND due_date < $1
		 RETURNING id, supplier_id, type, category, title, description, status, due_date,
		           responses, verification_type, required_documents, triggered_by, verification_result,
		           created_at, updated_at`,
		now.UTC())
	if err != nil {
		return nil, eris.Wrap(err, "postgres: mark overdue")
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanPgTask(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan overdue task")
		}
		tasks = append(tasks, *task)
	}
	return tasks, eris.Wrap(rows.Err(), "postgres: mark overdue iterate")
}

func (s *PostgresStore) CreateAlert(ctx context.Context, alert *model.Alert) error {
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO alerts (id, supplier_id, type, severity, title, description, source, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		alert.ID, alert.SupplierID, string(alert.Type), string(alert.Severity),
		alert.Title, alert.Description, alert.Source, string(alert.Status), alert.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert alert %s", alert.ID)
}

func (s *PostgresStore) ListAlerts(ctx context.Context, filter AlertFilter) ([]model.Alert, error) {
	query := `SELECT id, supplier_id, type, severity, title, description, source, status, created_at
	          FROM alerts WHERE true`
	args := []any{}
	argIdx := 1

	if filter.SupplierID != "" {
		query += fmt.Sprintf(` AND supplier_id = $%d`, argIdx)
		args = append(args, filter.SupplierID)
		argIdx++
	}
	if filter.Severity != "" {
		query += fmt.Sprintf(` AND severity = $%d`, argIdx)
		args = append(args, string(filter.Severity))
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list alerts")
	}
	defer rows.Close()

	var alerts []model.Alert
	for rows.Next() {
		var a model.Alert
		if err := rows.Scan(&a.ID, &a.SupplierID, &a.Type, &a.Severity, &a.Title, &a.Description, &a.Source, &a.Status, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan alert")
		}
		alerts = append(alerts, a)
	}
	return alerts, eris.Wrap(rows.Err(), "postgres: list alerts iterate")
}

func (s *PostgresStore) explainNoRows(ctx context.Context, id string) error {
	var status string
	err := s.pool.QueryRow(ctx, `SELECT status FROM tasks WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return eris.Wrapf(model.ErrNotFound, "task %s", id)
	}
	if err != nil {
		return eris.Wrapf(err, "postgres: look up task %s", id)
	}
	return eris.Wrapf(model.ErrTerminalTask, "task %s is %s", id, status)
}

func marshalNullable(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]string:
		if val == nil {
			return nil, nil
		}
	case []string:
		if val == nil {
			return nil, nil
		}
	case *model.VerificationResult:
		if val == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func scanPgTask(row pgx.Row) (*model.Task, error) {
	var task model.Task
	var responsesJSON, docsJSON, resultJSON []byte
	err := row.Scan(&task.ID, &task.SupplierID, &task.Type, &task.Category, &task.Title, &task.Description,
		&task.Status, &task.DueDate, &responsesJSON, &task.VerificationType, &docsJSON, &task.TriggeredBy,
		&resultJSON, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(responsesJSON) > 0 {
		if err := json.Unmarshal(responsesJSON, &task.Responses); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal responses")
		}
	}
	if len(docsJSON) > 0 {
		if err := json.Unmarshal(docsJSON, &task.RequiredDocuments); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal required documents")
		}
	}
	if len(resultJSON) > 0 {
		task.VerificationResult = &model.VerificationResult{}
		if err := json.Unmarshal(resultJSON, task.VerificationResult); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal verification result")
		}
	}
	return &task, nil
}
