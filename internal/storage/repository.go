package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gastos/internal/core"
	"gastos/internal/store"

	_ "modernc.org/sqlite"
)

// Fixed-width UTC timestamps sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRepository stores the config document, its revision history, sync
// runs and variable expenses in a SQLite database.
type SQLiteRepository struct {
	db   *sql.DB
	path string
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, path: dbPath}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load implements store.ConfigLoader.
func (r *SQLiteRepository) Load(ctx context.Context) (core.Config, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, `SELECT document FROM config_document WHERE id = 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Config{}, store.ErrConfigNotFound
	}
	if err != nil {
		return core.Config{}, fmt.Errorf("load config: %w", err)
	}
	return core.DecodeConfig([]byte(doc))
}

// Save implements store.ConfigSaver.
func (r *SQLiteRepository) Save(ctx context.Context, cfg core.Config) error {
	data, err := core.EncodeConfig(cfg)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO config_document (id, document, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		string(data), time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// RecordRevision implements store.HistoryRecorder.
func (r *SQLiteRepository) RecordRevision(ctx context.Context, rev core.Revision) error {
	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO config_revisions (reason, document, created_at) VALUES (?, ?, ?)`,
		rev.Reason, string(rev.Document), rev.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("record revision: %w", err)
	}
	id, _ := res.LastInsertId()
	slog.DebugContext(ctx, "Config revision recorded", "id", id, "reason", rev.Reason)
	return nil
}

// Revisions returns the latest revisions first, without their documents.
func (r *SQLiteRepository) Revisions(ctx context.Context, limit int) ([]core.Revision, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, reason, created_at FROM config_revisions ORDER BY id DESC LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	out := []core.Revision{}
	for rows.Next() {
		var (
			rev     core.Revision
			created string
		)
		if err := rows.Scan(&rev.ID, &rev.Reason, &created); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		rev.CreatedAt = parseTime(created)
		out = append(out, rev)
	}
	return out, rows.Err()
}

// Revision returns a single revision including its document.
func (r *SQLiteRepository) Revision(ctx context.Context, id int64) (core.Revision, error) {
	var (
		rev     core.Revision
		doc     string
		created string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, reason, document, created_at FROM config_revisions WHERE id = ?`, id).
		Scan(&rev.ID, &rev.Reason, &doc, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Revision{}, fmt.Errorf("revision %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Revision{}, fmt.Errorf("get revision %d: %w", id, err)
	}
	rev.Document = []byte(doc)
	rev.CreatedAt = parseTime(created)
	return rev, nil
}

// RecordSyncRun implements store.HistoryRecorder.
func (r *SQLiteRepository) RecordSyncRun(ctx context.Context, run core.SyncRun) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, month_mode, hoja_objetivo, hoja_creada, enlace, file_id,
			ingresos_extra_total, started_at, finished_at, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.MonthMode), run.HojaObjetivo, boolToInt(run.HojaCreada), run.Enlace, run.FileID,
		run.IngresosExtraTotal, run.StartedAt.UTC().Format(timeLayout), run.FinishedAt.UTC().Format(timeLayout), run.Error)
	if err != nil {
		return fmt.Errorf("record sync run: %w", err)
	}
	return nil
}

// SyncRuns returns the latest runs first.
func (r *SQLiteRepository) SyncRuns(ctx context.Context, limit int) ([]core.SyncRun, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, month_mode, hoja_objetivo, hoja_creada, enlace, file_id,
			ingresos_extra_total, started_at, finished_at, error
		FROM sync_runs ORDER BY started_at DESC LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	defer rows.Close()

	out := []core.SyncRun{}
	for rows.Next() {
		var (
			run              core.SyncRun
			mode             string
			created          int64
			started, finished string
		)
		if err := rows.Scan(&run.ID, &mode, &run.HojaObjetivo, &created, &run.Enlace, &run.FileID,
			&run.IngresosExtraTotal, &started, &finished, &run.Error); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		run.MonthMode = core.MonthMode(mode)
		run.HojaCreada = created != 0
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		out = append(out, run)
	}
	return out, rows.Err()
}

// AddVariable implements store.VariableExpenseStore.
func (r *SQLiteRepository) AddVariable(ctx context.Context, e core.VariableExpense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.Estado == "" {
		e.Estado = core.VariablePending
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO variable_expenses (id, monto, concepto, categoria, fecha, periodo, estado, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Monto, e.Concepto, e.Categoria, e.Fecha, e.Period().Key(), e.Estado, e.Error,
		e.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("create variable expense: %w", err)
	}

	slog.InfoContext(ctx, "Variable expense saved to SQLite",
		"id", e.ID,
		"concepto", e.Concepto,
		"monto", e.Monto,
		"periodo", e.Period().Key())
	return nil
}

const variableColumns = `id, monto, concepto, categoria, fecha, periodo, estado, error, created_at, synced_at`

// ListVariables returns the most recent variable expenses first.
func (r *SQLiteRepository) ListVariables(ctx context.Context, limit int) ([]core.VariableExpense, error) {
	return r.queryVariables(ctx,
		`SELECT `+variableColumns+` FROM variable_expenses ORDER BY created_at DESC LIMIT ?`, sqlLimit(limit))
}

// PendingVariables returns expenses not yet written to the workbook,
// oldest first. Failed expenses are included so they are retried.
func (r *SQLiteRepository) PendingVariables(ctx context.Context, limit int) ([]core.VariableExpense, error) {
	return r.queryVariables(ctx,
		`SELECT `+variableColumns+` FROM variable_expenses WHERE estado != 'synced' ORDER BY created_at ASC LIMIT ?`, sqlLimit(limit))
}

func (r *SQLiteRepository) queryVariables(ctx context.Context, query string, args ...any) ([]core.VariableExpense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query variable expenses: %w", err)
	}
	defer rows.Close()

	out := []core.VariableExpense{}
	for rows.Next() {
		var (
			e                core.VariableExpense
			created, synced string
		)
		if err := rows.Scan(&e.ID, &e.Monto, &e.Concepto, &e.Categoria, &e.Fecha, &e.Periodo,
			&e.Estado, &e.Error, &created, &synced); err != nil {
			return nil, fmt.Errorf("scan variable expense: %w", err)
		}
		e.CreatedAt = parseTime(created)
		e.SyncedAt = parseTime(synced)
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkVariableSynced implements store.VariableExpenseStore.
func (r *SQLiteRepository) MarkVariableSynced(ctx context.Context, id string, at time.Time) error {
	if err := r.updateVariable(ctx,
		`UPDATE variable_expenses SET estado = 'synced', error = '', synced_at = ? WHERE id = ?`,
		at.UTC().Format(timeLayout), id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Variable expense marked as synced", "id", id)
	return nil
}

// MarkVariableFailed implements store.VariableExpenseStore.
func (r *SQLiteRepository) MarkVariableFailed(ctx context.Context, id string, reason string) error {
	if err := r.updateVariable(ctx,
		`UPDATE variable_expenses SET estado = 'failed', error = ? WHERE id = ?`, reason, id); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Variable expense marked with sync error", "id", id, "error", reason)
	return nil
}

func (r *SQLiteRepository) updateVariable(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update variable expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update variable expense: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("variable expense %v: %w", args[len(args)-1], core.ErrNotFound)
	}
	return nil
}

func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

var (
	_ store.ConfigRepository     = (*SQLiteRepository)(nil)
	_ store.VariableExpenseStore = (*SQLiteRepository)(nil)
	_ store.History              = (*SQLiteRepository)(nil)
)
