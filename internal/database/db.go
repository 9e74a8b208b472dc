package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the sqlite connection used for historical survey results and the
// append-only training/prediction logs.
type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the sqlite database under dataDir and runs
// migrations.
func NewDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "maturity_engine.db")

	connStr := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	database := &DB{DB: db}

	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("Database initialized", "path", dbPath)

	return database, nil
}

// migrate creates the necessary tables
func (db *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS indicators (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			category TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS evaluation_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			organization_id INTEGER NOT NULL DEFAULT 0,
			organization_name TEXT NOT NULL DEFAULT '',
			overall_score REAL NOT NULL,
			maturity_level TEXT NOT NULL,
			computed_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS indicator_values (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			record_id INTEGER NOT NULL,
			indicator_id INTEGER NOT NULL,
			value REAL NOT NULL,
			level TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (record_id) REFERENCES evaluation_records(id) ON DELETE CASCADE,
			FOREIGN KEY (indicator_id) REFERENCES indicators(id)
		)`,

		// Append-only log of completed trainings
		`CREATE TABLE IF NOT EXISTS training_runs (
			id TEXT PRIMARY KEY,
			model_name TEXT NOT NULL,
			version TEXT NOT NULL,
			accuracy REAL NOT NULL,
			artifact_path TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		// Append-only log of persisted predictions
		`CREATE TABLE IF NOT EXISTS predictions (
			id TEXT PRIMARY KEY,
			training_run_id TEXT NOT NULL,
			record_id INTEGER NOT NULL,
			predicted_level TEXT NOT NULL,
			probability REAL NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (training_run_id) REFERENCES training_runs(id),
			FOREIGN KEY (record_id) REFERENCES evaluation_records(id)
		)`,

		// Indexes for performance
		`CREATE INDEX IF NOT EXISTS idx_indicator_values_record ON indicator_values(record_id)`,
		`CREATE INDEX IF NOT EXISTS idx_indicator_values_indicator ON indicator_values(indicator_id)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluation_records_org ON evaluation_records(organization_id)`,
		`CREATE INDEX IF NOT EXISTS idx_evaluation_records_computed ON evaluation_records(computed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_training_runs_created ON training_runs(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_record ON predictions(record_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}
