package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtnitsch/topic-scores/models"
)

// Run is one stored reduce run.
type Run struct {
	RunID      string
	CreatedAt  time.Time
	Command    string
	InputHash  string
	Substrate  string
	Capacity   int
	MaxWorkers int
	Records    int
	Workers    int
	TotalCount int
	Status     string
	Error      string
}

// ErrRunNotFound is returned when a run ID has no row.
var ErrRunNotFound = errors.New("run not found")

// SaveRun inserts a run and its totals in one transaction.
// A new UUID is assigned when run.RunID is empty. Returns the run ID.
func (db *DB) SaveRun(run *Run, totals []models.Total) (string, error) {
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	run.TotalCount = len(totals)

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // No-op after Commit

	_, err = tx.Exec(`
		INSERT INTO runs (run_id, command, input_hash, substrate, capacity, max_workers,
		                  records, workers, total_count, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.RunID, run.Command, NewNullString(run.InputHash), run.Substrate, run.Capacity, run.MaxWorkers,
		run.Records, run.Workers, run.TotalCount, run.Status, NewNullString(run.Error))
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_totals (run_id, position, key, topic, score)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare total insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range totals {
		if _, err := stmt.Exec(run.RunID, i, t.Key, t.Topic, t.Score); err != nil {
			return "", fmt.Errorf("failed to insert total %s: %w", t, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return run.RunID, nil
}

const runColumns = `run_id, created_at, command, input_hash, substrate, capacity, max_workers,
		       records, workers, total_count, status, error`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var inputHash, runErr sql.NullString
	if err := row.Scan(&r.RunID, &r.CreatedAt, &r.Command, &inputHash, &r.Substrate, &r.Capacity,
		&r.MaxWorkers, &r.Records, &r.Workers, &r.TotalCount, &r.Status, &runErr); err != nil {
		return nil, err
	}
	r.InputHash = inputHash.String
	r.Error = runErr.String
	return &r, nil
}

// GetRun retrieves a run by ID.
func (db *DB) GetRun(runID string) (*Run, error) {
	row := db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return r, nil
}

// ListRuns retrieves runs ordered by most recent first
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *r)
	}

	return runs, rows.Err()
}

// GetRunTotals returns a run's totals in the order they were collected.
func (db *DB) GetRunTotals(runID string) ([]models.Total, error) {
	rows, err := db.Query(`
		SELECT key, topic, score FROM run_totals
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run totals: %w", err)
	}
	defer rows.Close()

	var totals []models.Total
	for rows.Next() {
		var t models.Total
		if err := rows.Scan(&t.Key, &t.Topic, &t.Score); err != nil {
			return nil, fmt.Errorf("failed to scan total: %w", err)
		}
		totals = append(totals, t)
	}

	return totals, rows.Err()
}

// FindRunsByInput returns successful runs over the same input, most recent first.
func (db *DB) FindRunsByInput(inputHash string) ([]Run, error) {
	rows, err := db.Query(`SELECT `+runColumns+` FROM runs
		WHERE input_hash = ? AND status = 'success'
		ORDER BY created_at DESC, rowid DESC`, inputHash)
	if err != nil {
		return nil, fmt.Errorf("failed to find runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *r)
	}

	return runs, rows.Err()
}

// DeleteRun removes a run and, through the foreign key cascade, its totals.
func (db *DB) DeleteRun(runID string) error {
	result, err := db.Exec("DELETE FROM runs WHERE run_id = ?", runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	return nil
}
