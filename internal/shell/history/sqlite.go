package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "failed to open database", ErrConnectionFailed)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Run Operations
// =============================================================================

// runRow represents a run row in the database.
type runRow struct {
	ID         string `db:"id"`
	Operation  string `db:"operation"`
	Degraded   bool   `db:"degraded"`
	Services   string `db:"services"`
	StartedAt  string `db:"started_at"`
	FinishedAt string `db:"finished_at"`
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	servicesJSON, err := json.Marshal(run.Services)
	if err != nil {
		return NewStoreError("SaveRun", run.ID, "failed to serialize services", ErrInvalidData)
	}

	query := `
		INSERT INTO runs (id, operation, degraded, services, started_at, finished_at)
		VALUES (:id, :operation, :degraded, :services, :started_at, :finished_at)`

	row := map[string]any{
		"id":          run.ID,
		"operation":   run.Operation,
		"degraded":    run.Degraded,
		"services":    string(servicesJSON),
		"started_at":  run.StartedAt.UTC().Format(time.RFC3339),
		"finished_at": run.FinishedAt.UTC().Format(time.RFC3339),
	}

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: runs.id") {
			return NewStoreError("SaveRun", run.ID, "run with this ID already exists", ErrDuplicateID)
		}
		return NewStoreError("SaveRun", run.ID, err.Error(), err)
	}

	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	query := `SELECT * FROM runs WHERE id = ?`

	var row runRow
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetRun", id, "run not found", ErrNotFound)
		}
		return nil, NewStoreError("GetRun", id, err.Error(), err)
	}

	return rowToRun(&row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT * FROM runs ORDER BY started_at DESC, id LIMIT ?`

	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, NewStoreError("ListRuns", "", err.Error(), err)
	}

	runs := make([]Run, 0, len(rows))
	for _, row := range rows {
		run, err := rowToRun(&row)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	return runs, nil
}

// rowToRun converts a database row to a Run.
func rowToRun(row *runRow) (*Run, error) {
	startedAt, _ := time.Parse(time.RFC3339, row.StartedAt)
	finishedAt, _ := time.Parse(time.RFC3339, row.FinishedAt)

	var services []ServiceOutcome
	if row.Services != "" && row.Services != "null" {
		if err := json.Unmarshal([]byte(row.Services), &services); err != nil {
			return nil, NewStoreError("rowToRun", row.ID, "failed to parse services", ErrInvalidData)
		}
	}

	return &Run{
		ID:         row.ID,
		Operation:  row.Operation,
		Degraded:   row.Degraded,
		Services:   services,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}, nil
}
