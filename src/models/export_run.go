package models

import (
	"database/sql"
	"fmt"
	"time"
)

// ExportRun records one completed CSV export: how many records were
// requested and written, how many carried a fraud label, and where the
// file ended up.
type ExportRun struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	Requested     int       `json:"requested"`
	Written       int       `json:"written"`
	FraudCount    int       `json:"fraud_count"`
	IncludeLabels bool      `json:"include_labels"`
	CreatedAt     time.Time `json:"created_at"`
}

func InsertExportRun(db *sql.DB, run *ExportRun) error {
	_, err := db.Exec(`
		INSERT INTO export_runs (id, filename, requested, written, fraud_count, include_labels, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Filename, run.Requested, run.Written, run.FraudCount, run.IncludeLabels,
		run.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting export run %s: %w", run.ID, err)
	}
	return nil
}

func GetExportRun(db *sql.DB, id string) (*ExportRun, error) {
	row := db.QueryRow(`
		SELECT id, filename, requested, written, fraud_count, include_labels, created_at
		FROM export_runs WHERE id = ?`, id)
	return scanExportRun(row)
}

func ListExportRuns(db *sql.DB, limit int) ([]ExportRun, error) {
	rows, err := db.Query(`
		SELECT id, filename, requested, written, fraud_count, include_labels, created_at
		FROM export_runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying export runs: %w", err)
	}
	defer rows.Close()

	runs := []ExportRun{}
	for rows.Next() {
		run, err := scanExportRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating export runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExportRun(row rowScanner) (*ExportRun, error) {
	var run ExportRun
	var createdAt string
	err := row.Scan(&run.ID, &run.Filename, &run.Requested, &run.Written,
		&run.FraudCount, &run.IncludeLabels, &createdAt)
	if err != nil {
		return nil, err
	}
	if t, parseErr := time.Parse(time.RFC3339, createdAt); parseErr == nil {
		run.CreatedAt = t
	}
	return &run, nil
}
