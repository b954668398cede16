// Package sqlite implements the entity store on SQLite through database/sql.
// Entities are stored as JSON documents next to the columns used for lookup
// and ordering; a monotonically increasing seq column preserves insertion order.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/vsinha/capplan/pkg/domain/errs"
	"github.com/vsinha/capplan/pkg/domain/repositories"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a SQLite-backed repositories.Store
type Store struct {
	db *sql.DB
	q  querier
	tx bool
}

// Verify interface compliance
var _ repositories.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and runs migrations
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	store := &Store{db: db, q: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS periods (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL,
			start_date TEXT NOT NULL,
			data_json TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS employees (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			org_unit_id TEXT NOT NULL DEFAULT '',
			active INTEGER NOT NULL DEFAULT 1,
			data_json TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS initiatives (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			data_json TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS scenarios (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			data_json TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS allocations (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			scenario_id TEXT NOT NULL,
			data_json TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_allocations_scenario ON allocations(scenario_id)`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			scenario_id TEXT NOT NULL UNIQUE,
			data_json TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS drift_alerts (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			scenario_id TEXT NOT NULL,
			period_id TEXT NOT NULL,
			status TEXT NOT NULL,
			data_json TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_drift_alerts_scenario ON drift_alerts(scenario_id, period_id)`,
		`CREATE TABLE IF NOT EXISTS state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	return nil
}

// WithinTx runs fn inside one SQL transaction. Nested calls join the
// enclosing transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repositories.Store) error) error {
	if s.tx {
		return fn(s)
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Store{db: s.db, q: sqlTx, tx: true}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *Store) Periods() repositories.PeriodRepository         { return &periodRepository{q: s.q} }
func (s *Store) Employees() repositories.EmployeeRepository     { return &employeeRepository{q: s.q} }
func (s *Store) Initiatives() repositories.InitiativeRepository { return &initiativeRepository{q: s.q} }
func (s *Store) Scenarios() repositories.ScenarioRepository     { return &scenarioRepository{q: s.q} }
func (s *Store) Allocations() repositories.AllocationRepository { return &allocationRepository{q: s.q} }
func (s *Store) Snapshots() repositories.SnapshotRepository     { return &snapshotRepository{q: s.q} }
func (s *Store) Alerts() repositories.DriftAlertRepository      { return &alertRepository{q: s.q} }
func (s *Store) Thresholds() repositories.ThresholdRepository   { return &thresholdRepository{q: s.q} }

// getDocument decodes the data_json column of the row matching query
func getDocument(ctx context.Context, q querier, entity, id, query string, out any, args ...any) error {
	var raw string
	err := q.QueryRowContext(ctx, query, args...).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return errs.NotFound(entity, id)
	}
	if err != nil {
		return fmt.Errorf("querying %s %s: %w", entity, id, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", entity, id, err)
	}
	return nil
}

// listDocuments decodes data_json of every returned row through decode
func listDocuments(ctx context.Context, q querier, entity, query string, decode func(raw []byte) error, args ...any) error {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying %s: %w", entity, err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return fmt.Errorf("scanning %s: %w", entity, err)
		}
		if err := decode([]byte(raw)); err != nil {
			return fmt.Errorf("decoding %s: %w", entity, err)
		}
	}
	return rows.Err()
}

func encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding document: %w", err)
	}
	return string(data), nil
}
