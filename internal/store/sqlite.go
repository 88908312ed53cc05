package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/supplier-risk/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS suppliers (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	country           TEXT NOT NULL,
	industry_code     TEXT NOT NULL DEFAULT '',
	dimensions        TEXT NOT NULL,
	overall_score     INTEGER NOT NULL DEFAULT 50,
	risk_level        TEXT NOT NULL DEFAULT 'medium',
	data_completeness INTEGER NOT NULL DEFAULT 0,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS sites (
	id             TEXT PRIMARY KEY,
	supplier_id    TEXT NOT NULL REFERENCES suppliers(id),
	name           TEXT NOT NULL DEFAULT '',
	country        TEXT NOT NULL,
	facility_type  TEXT NOT NULL DEFAULT '',
	certifications TEXT NOT NULL DEFAULT '[]',
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS tasks (
	id                  TEXT PRIMARY KEY,
	supplier_id         TEXT NOT NULL REFERENCES suppliers(id),
	type                TEXT NOT NULL,
	category            TEXT NOT NULL DEFAULT '',
	title               TEXT NOT NULL DEFAULT '',
	description         TEXT NOT NULL DEFAULT '',
	status              TEXT NOT NULL DEFAULT 'pending',
	due_date            DATETIME NOT NULL,
	responses           TEXT,
	verification_type   TEXT NOT NULL DEFAULT '',
	required_documents  TEXT,
	triggered_by        TEXT NOT NULL DEFAULT '',
	verification_result TEXT,
	created_at          DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at          DATETIME NOT NULL DEFAULT (datetime('now'))
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
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_sites_supplier_id ON sites(supplier_id);
CREATE INDEX IF NOT EXISTS idx_tasks_supplier_id ON tasks(supplier_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_status_due ON tasks(status, due_date);
CREATE INDEX IF NOT EXISTS idx_alerts_supplier_id ON alerts(supplier_id);
CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateSupplier(ctx context.Context, sup *model.Supplier) error {
	now := time.Now().UTC()
	if sup.CreatedAt.IsZero() {
		sup.CreatedAt = now
	}
	sup.UpdatedAt = now

	dimsJSON, err := json.Marshal(sup.Dimensions)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal dimensions")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO suppliers (id, name, country, industry_code, dimensions, overall_score, risk_level, data_completeness, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sup.ID, sup.Name, sup.Country, sup.IndustryCode, string(dimsJSON),
		sup.OverallScore, string(sup.RiskLevel), sup.DataCompleteness, sup.CreatedAt, sup.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert supplier %s", sup.ID)
}

func (s *SQLiteStore) GetSupplier(ctx context.Context, id string) (*model.Supplier, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, country, industry_code, dimensions, overall_score, risk_level, data_completeness, created_at, updated_at
		 FROM suppliers WHERE id = ?`, id)
	return scanSupplier(row, id)
}

func (s *SQLiteStore) ListSuppliers(ctx context.Context, limit, offset int) ([]model.Supplier, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, country, industry_code, dimensions, overall_score, risk_level, data_completeness, created_at, updated_at
		 FROM suppliers ORDER BY name LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list suppliers")
	}
	defer rows.Close()

	var suppliers []model.Supplier
	for rows.Next() {
		sup, err := scanSupplier(rows, "")
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, *sup)
	}
	return suppliers, eris.Wrap(rows.Err(), "sqlite: list suppliers iterate")
}

func (s *SQLiteStore) UpsertSuppliers(ctx context.Context, suppliers []model.Supplier) (int, error) {
	if len(suppliers) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert begin")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, sup := range suppliers {
		dimsJSON, err := json.Marshal(sup.Dimensions)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: marshal dimensions")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO suppliers (id, name, country, industry_code, dimensions, overall_score, risk_level, data_completeness, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET
			   name = excluded.name, country = excluded.country,
			   industry_code = excluded.industry_code, updated_at = excluded.updated_at`,
			sup.ID, sup.Name, sup.Country, sup.IndustryCode, string(dimsJSON),
			sup.OverallScore, string(sup.RiskLevel), sup.DataCompleteness, now, now,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert supplier %s", sup.ID)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert commit")
	}
	return len(suppliers), nil
}

func (s *SQLiteStore) UpdateSupplierRisk(ctx context.Context, id string, dims model.Dimensions, overall int, level model.RiskLevel, completeness int) error {
	dimsJSON, err := json.Marshal(dims)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal dimensions")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE suppliers SET dimensions = ?, overall_score = ?, risk_level = ?, data_completeness = ?, updated_at = ?
		 WHERE id = ?`,
		string(dimsJSON), overall, string(level), completeness, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update supplier risk %s", id)
	}
	return checkRowsAffected(res, "supplier", id)
}

func (s *SQLiteStore) CreateSite(ctx context.Context, site *model.Site) error {
	if site.CreatedAt.IsZero() {
		site.CreatedAt = time.Now().UTC()
	}
	certsJSON, err := json.Marshal(site.Certifications)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal certifications")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sites (id, supplier_id, name, country, facility_type, certifications, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		site.ID, site.SupplierID, site.Name, site.Country, site.FacilityType, string(certsJSON), site.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert site %s", site.ID)
}

func (s *SQLiteStore) ListSites(ctx context.Context, supplierID string) ([]model.Site, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, supplier_id, name, country, facility_type, certifications, created_at
		 FROM sites WHERE supplier_id = ? ORDER BY created_at`, supplierID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sites")
	}
	defer rows.Close()

	var sites []model.Site
	for rows.Next() {
		var site model.Site
		var certsJSON string
		if err := rows.Scan(&site.ID, &site.SupplierID, &site.Name, &site.Country, &site.FacilityType, &certsJSON, &site.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan site")
		}
		if err := json.Unmarshal([]byte(certsJSON), &site.Certifications); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal certifications")
		}
		sites = append(sites, site)
	}
	return sites, eris.Wrap(rows.Err(), "sqlite: list sites iterate")
}

func (s *SQLiteStore) CreateTask(ctx context.Context, task *model.Task) error {
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	responsesJSON, docsJSON, resultJSON, err := marshalTaskBlobs(task)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, supplier_id, type, category, title, description, status, due_date,
		                    responses, verification_type, required_documents, triggered_by, verification_result,
		                    created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.SupplierID, string(task.Type), string(task.Category), task.Title, task.Description,
		string(task.Status), task.DueDate, responsesJSON, task.VerificationType, docsJSON, task.TriggeredBy,
		resultJSON, task.CreatedAt, task.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert task %s", task.ID)
}

func (s *SQLiteStore) GetTask(ctx context.Context, id string) (*model.Task, error) {
	row := s.db.QueryRowContext(ctx, selectTask+` WHERE id = ?`, id)
	return scanTask(row, id)
}

func (s *SQLiteStore) ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query := selectTask + ` WHERE 1=1`
	var args []any

	if filter.SupplierID != "" {
		query += ` AND supplier_id = ?`
		args = append(args, filter.SupplierID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tasks")
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows, "")
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, eris.Wrap(rows.Err(), "sqlite: list tasks iterate")
}

// terminalGuard is appended to task updates so verified and failed tasks
// stay immutable.
const terminalGuard = ` AND status NOT IN ('verified', 'failed')`

func (s *SQLiteStore) UpdateTaskStatus(ctx context.Context, id string, status model.TaskStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`+terminalGuard,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update task status %s", id)
	}
	return s.explainNoRows(ctx, res, id)
}

func (s *SQLiteStore) CompleteTask(ctx context.Context, id string, responses map[string]string) (*model.Task, error) {
	responsesJSON, err := json.Marshal(responses)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal responses")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, responses = ?, updated_at = ? WHERE id = ?`+terminalGuard,
		string(model.TaskStatusCompleted), string(responsesJSON), time.Now().UTC(), id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: complete task %s", id)
	}
	if err := s.explainNoRows(ctx, res, id); err != nil {
		return nil, err
	}
	return s.GetTask(ctx, id)
}

func (s *SQLiteStore) SetVerificationResult(ctx context.Context, id string, result *model.VerificationResult, status model.TaskStatus) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal verification result")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET verification_result = ?, status = ?, updated_at = ? WHERE id = ?`+terminalGuard,
		string(resultJSON), string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set verification result %s", id)
	}
	return s.explainNoRows(ctx, res, id)
}

func (s *SQLiteStore) MarkOverdue(ctx context.Context, now time.Time) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		selectTask+` WHERE status IN ('pending', 'sent') AND due_date < ?`, now.UTC())
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query overdue tasks")
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows, "")
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: overdue iterate")
	}

	ts := now.UTC()
	for i := range tasks {
		_, err := s.db.ExecContext(ctx,
			`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
			string(model.TaskStatusOverdue), ts, tasks[i].ID,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: mark task overdue %s", tasks[i].ID)
		}
		tasks[i].Status = model.TaskStatusOverdue
	}
	return tasks, nil
}

func (s *SQLiteStore) CreateAlert(ctx context.Context, alert *model.Alert) error {
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (id, supplier_id, type, severity, title, description, source, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		alert.ID, alert.SupplierID, string(alert.Type), string(alert.Severity),
		alert.Title, alert.Description, alert.Source, string(alert.Status), alert.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert alert %s", alert.ID)
}

func (s *SQLiteStore) ListAlerts(ctx context.Context, filter AlertFilter) ([]model.Alert, error) {
	query := `SELECT id, supplier_id, type, severity, title, description, source, status, created_at
	          FROM alerts WHERE 1=1`
	var args []any

	if filter.SupplierID != "" {
		query += ` AND supplier_id = ?`
		args = append(args, filter.SupplierID)
	}
	if filter.Severity != "" {
		query += ` AND severity = ?`
		args = append(args, string(filter.Severity))
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list alerts")
	}
	defer rows.Close()

	var alerts []model.Alert
	for rows.Next() {
		var a model.Alert
		if err := rows.Scan(&a.ID, &a.SupplierID, &a.Type, &a.Severity, &a.Title, &a.Description, &a.Source, &a.Status, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan alert")
		}
		alerts = append(alerts, a)
	}
	return alerts, eris.Wrap(rows.Err(), "sqlite: list alerts iterate")
}

// explainNoRows distinguishes a missing task from a terminal one after a
// guarded update matched nothing.
func (s *SQLiteStore) explainNoRows(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n > 0 {
		return nil
	}
	var status string
	err = s.db.QueryRowContext(ctx, `SELECT status FROM tasks WHERE id = ?`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return eris.Wrapf(model.ErrNotFound, "task %s", id)
	}
	if err != nil {
		return eris.Wrapf(err, "sqlite: look up task %s", id)
	}
	return eris.Wrapf(model.ErrTerminalTask, "task %s is %s", id, status)
}

// helpers

const selectTask = `SELECT id, supplier_id, type, category, title, description, status, due_date,
       responses, verification_type, required_documents, triggered_by, verification_result,
       created_at, updated_at FROM tasks`

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(model.ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func marshalTaskBlobs(task *model.Task) (responses, docs, result sql.NullString, err error) {
	if task.Responses != nil {
		b, merr := json.Marshal(task.Responses)
		if merr != nil {
			return responses, docs, result, eris.Wrap(merr, "sqlite: marshal responses")
		}
		responses = sql.NullString{String: string(b), Valid: true}
	}
	if task.RequiredDocuments != nil {
		b, merr := json.Marshal(task.RequiredDocuments)
		if merr != nil {
			return responses, docs, result, eris.Wrap(merr, "sqlite: marshal required documents")
		}
		docs = sql.NullString{String: string(b), Valid: true}
	}
	if task.VerificationResult != nil {
		b, merr := json.Marshal(task.VerificationResult)
		if merr != nil {
			return responses, docs, result, eris.Wrap(merr, "sqlite: marshal verification result")
		}
		result = sql.NullString{String: string(b), Valid: true}
	}
	return responses, docs, result, nil
}

func scanSupplier(row scannable, id string) (*model.Supplier, error) {
	var sup model.Supplier
	var dimsJSON string
	err := row.Scan(&sup.ID, &sup.Name, &sup.Country, &sup.IndustryCode, &dimsJSON,
		&sup.OverallScore, &sup.RiskLevel, &sup.DataCompleteness, &sup.CreatedAt, &sup.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(model.ErrNotFound, "supplier %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan supplier")
	}
	if err := json.Unmarshal([]byte(dimsJSON), &sup.Dimensions); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal dimensions")
	}
	return &sup, nil
}

func scanTask(row scannable, id string) (*model.Task, error) {
	var task model.Task
	var responsesJSON, docsJSON, resultJSON sql.NullString
	err := row.Scan(&task.ID, &task.SupplierID, &task.Type, &task.Category, &task.Title, &task.Description,
		&task.Status, &task.DueDate, &responsesJSON, &task.VerificationType, &docsJSON, &task.TriggeredBy,
		&resultJSON, &task.CreatedAt, &task.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(model.ErrNotFound, "task %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan task")
	}
	if responsesJSON.Valid && responsesJSON.String != "" {
		if err := json.Unmarshal([]byte(responsesJSON.String), &task.Responses); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal responses")
		}
	}
	if docsJSON.Valid && docsJSON.String != "" {
		if err := json.Unmarshal([]byte(docsJSON.String), &task.RequiredDocuments); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal required documents")
		}
	}
	if resultJSON.Valid && resultJSON.String != "" {
		task.VerificationResult = &model.VerificationResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), task.VerificationResult); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal verification result")
		}
	}
	return &task, nil
}
