package tinyos

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/antibyte/retrobasic/pkg/logger"
	"github.com/antibyte/retrobasic/pkg/tinybasic"
)

// InitDB initializes the SQLite database connection and returns the connection object.
func InitDB(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// CreateTables ensures all required tables exist in the database.
func CreateTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			program TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL,
			instructions INTEGER NOT NULL,
			lines INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_session ON runs(session_id, finished_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// RunRecord is one row of the run journal.
type RunRecord struct {
	ID           string
	SessionID    string
	Program      string
	State        string
	Instructions int
	Lines        int
	FinishedAt   time.Time
}

// Journal records the outcome of every RUN. A nil *Journal records nothing.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// NewJournal wraps an initialized database. CreateTables must have run.
func NewJournal(db *sql.DB) *Journal {
	return &Journal{db: db, now: time.Now}
}

// RecordRun stores one RUN outcome for sessionID.
func (j *Journal) RecordRun(sessionID string, report tinybasic.RunReport) error {
	if j == nil || j.db == nil {
		return nil
	}
	_, err := j.db.Exec(`
		INSERT INTO runs (id, session_id, program, state, instructions, lines, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), sessionID, report.Program, report.State.String(),
		report.Instructions, report.Lines, j.now().UnixNano())
	if err != nil {
		return fmt.Errorf("error saving run: %w", err)
	}
	logger.Debug(logger.AreaDatabase, "recorded run for session %s: %s", sessionID, report.State)
	return nil
}

// RecentRuns returns up to limit runs of sessionID, newest first.
func (j *Journal) RecentRuns(sessionID string, limit int) ([]RunRecord, error) {
	if j == nil || j.db == nil {
		return nil, nil
	}
	rows, err := j.db.Query(`
		SELECT id, session_id, program, state, instructions, lines, finished_at
		FROM runs WHERE session_id = ?
		ORDER BY finished_at DESC LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		var finished int64
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Program, &r.State, &r.Instructions, &r.Lines, &finished); err != nil {
			return nil, fmt.Errorf("error reading run: %w", err)
		}
		r.FinishedAt = time.Unix(0, finished)
		records = append(records, r)
	}
	return records, rows.Err()
}
