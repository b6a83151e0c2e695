package database

import (
	"fmt"
	"time"
)

// RunRepo handles the append-only ingestion run records.
type RunRepo struct {
	db *DB
}

var _ RunRepository = (*RunRepo)(nil)

func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

func (r *RunRepo) CreateRun(sourceID int64) (int64, error) {
	res, err := r.db.Exec(`
		INSERT INTO ingest_runs (source_id, started_at, status)
		VALUES (NULLIF(?, 0), ?, ?)
	`, sourceID, formatTime(time.Now().UTC()), RunStatusRunning)
	if err != nil {
		return 0, fmt.Errorf("failed to create run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	return id, nil
}

func (r *RunRepo) FinishRun(id int64, status RunStatus, itemsAdded int, errText string) error {
	_, err := r.db.Exec(`
		UPDATE ingest_runs
		SET finished_at = ?, status = ?, items_added = ?, error = NULLIF(?, '')
		WHERE id = ?
	`, formatTime(time.Now().UTC()), status, itemsAdded, errText, id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

func (r *RunRepo) ListRuns(sourceID int64, limit int) ([]IngestRun, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT id, COALESCE(source_id, 0), started_at, finished_at, status,
		       items_added, COALESCE(error, '')
		FROM ingest_runs`
	args := []any{}
	if sourceID != 0 {
		query += ` WHERE source_id = ?`
		args = append(args, sourceID)
	}
	query += ` ORDER BY started_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []IngestRun
	for rows.Next() {
		var run IngestRun
		var startedAt string
		var finishedAt *string
		err := rows.Scan(&run.ID, &run.SourceID, &startedAt, &finishedAt,
			&run.Status, &run.ItemsAdded, &run.Error)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		run.StartedAt = parseTime(startedAt)
		run.FinishedAt = parseTimePtr(finishedAt)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}

	return runs, nil
}
