package database

import (
	"database/sql"
	"fmt"
	"time"
)

// SourceRepo handles database operations for ingestion sources.
type SourceRepo struct {
	db *DB
}

var _ SourceRepository = (*SourceRepo)(nil)

func NewSourceRepo(db *DB) *SourceRepo {
	return &SourceRepo{db: db}
}

const sourceColumns = `id, name, type, COALESCE(category, ''), enabled, created_at`

func (r *SourceRepo) GetSource(id int64) (*Source, error) {
	row := r.db.QueryRow(`SELECT `+sourceColumns+`, url FROM sources WHERE id = ?`, id)

	var s Source
	var createdAt string
	err := row.Scan(&s.ID, &s.Name, &s.Type, &s.Category, &s.Enabled, &createdAt, &s.URL)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	s.CreatedAt = parseTime(createdAt)

	return &s, nil
}

func (r *SourceRepo) GetSourceByURL(url string) (*Source, error) {
	row := r.db.QueryRow(`SELECT `+sourceColumns+`, url FROM sources WHERE url = ?`, url)

	var s Source
	var createdAt string
	err := row.Scan(&s.ID, &s.Name, &s.Type, &s.Category, &s.Enabled, &createdAt, &s.URL)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source by url: %w", err)
	}
	s.CreatedAt = parseTime(createdAt)

	return &s, nil
}

func (r *SourceRepo) ListSources() ([]Source, error) {
	return r.listSources(`SELECT ` + sourceColumns + `, url FROM sources ORDER BY id`)
}

func (r *SourceRepo) ListEnabledSources() ([]Source, error) {
	return r.listSources(`SELECT ` + sourceColumns + `, url FROM sources WHERE enabled = 1 ORDER BY id`)
}

func (r *SourceRepo) listSources(query string) ([]Source, error) {
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		var createdAt string
		err := rows.Scan(&s.ID, &s.Name, &s.Type, &s.Category, &s.Enabled, &createdAt, &s.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		s.CreatedAt = parseTime(createdAt)
		sources = append(sources, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}

func (r *SourceRepo) GetSourceCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM sources`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get source count: %w", err)
	}
	return count, nil
}

func (r *SourceRepo) CreateSource(source *Source) error {
	if source.Type == "" {
		source.Type = SourceTypeRSS
	}
	if source.CreatedAt.IsZero() {
		source.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.Exec(`
		INSERT INTO sources (name, type, url, category, enabled, created_at)
		VALUES (?, ?, ?, NULLIF(?, ''), ?, ?)
	`, source.Name, source.Type, source.URL, source.Category, source.Enabled, formatTime(source.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create source: %w", err)
	}

	source.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get source id: %w", err)
	}

	return nil
}

func (r *SourceRepo) SetSourceEnabled(id int64, enabled bool) error {
	_, err := r.db.Exec(`UPDATE sources SET enabled = ? WHERE id = ?`, enabled, id)
	if err != nil {
		return fmt.Errorf("failed to update source enabled flag: %w", err)
	}
	return nil
}

func (r *SourceRepo) UpdateSourceCategory(id int64, category string) error {
	_, err := r.db.Exec(`UPDATE sources SET category = NULLIF(?, '') WHERE id = ?`, category, id)
	if err != nil {
		return fmt.Errorf("failed to update source category: %w", err)
	}
	return nil
}
