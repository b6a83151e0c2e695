package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// ItemRepo handles database operations for ingested items and their
// type-specific detail records.
type ItemRepo struct {
	db *DB
}

var _ ItemRepository = (*ItemRepo)(nil)

func NewItemRepo(db *DB) *ItemRepo {
	return &ItemRepo{db: db}
}

const itemColumns = `items.id, items.type, items.title, COALESCE(items.company_name, ''),
	items.url, COALESCE(items.source_id, 0), items.published_at,
	COALESCE(items.summary, ''), COALESCE(items.raw_json, ''), items.hash,
	items.hidden, items.created_at`

func scanItem(scan func(...any) error) (Item, error) {
	var item Item
	var publishedAt *string
	var createdAt string
	err := scan(
		&item.ID, &item.Type, &item.Title, &item.CompanyName,
		&item.URL, &item.SourceID, &publishedAt,
		&item.Summary, &item.RawJSON, &item.Hash,
		&item.Hidden, &createdAt,
	)
	if err != nil {
		return Item{}, err
	}
	item.PublishedAt = parseTimePtr(publishedAt)
	item.CreatedAt = parseTime(createdAt)
	return item, nil
}

func (r *ItemRepo) GetItem(id int64) (*Item, error) {
	row := r.db.QueryRow(`SELECT `+itemColumns+` FROM items WHERE items.id = ?`, id)

	item, err := scanItem(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return &item, nil
}

// listQuery builds the filtered item query. Filters compose: type, substring
// search, minimum fit score (joins the analysis table), date range and the
// hidden flag.
func listQuery(filter ItemFilter) sq.SelectBuilder {
	q := sq.Select().From("items")

	if filter.MinScore != nil {
		q = q.Join("mena_analysis ON mena_analysis.item_id = items.id").
			Where(sq.GtOrEq{"mena_analysis.fit_score": *filter.MinScore})
	}

	if filter.Type != "" {
		q = q.Where(sq.Eq{"items.type": filter.Type})
	}

	if !filter.ShowHidden {
		q = q.Where(sq.Eq{"items.hidden": false})
	}

	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		q = q.Where(sq.Or{
			sq.Like{"items.title": pattern},
			sq.Like{"items.company_name": pattern},
			sq.Like{"items.summary": pattern},
		})
	}

	if filter.DateRange != "" {
		var cutoff time.Time
		now := time.Now().UTC()
		switch filter.DateRange {
		case "24h":
			cutoff = now.Add(-24 * time.Hour)
		case "7d":
			cutoff = now.AddDate(0, 0, -7)
		case "30d":
			cutoff = now.AddDate(0, 0, -30)
		}
		if !cutoff.IsZero() {
			q = q.Where(sq.GtOrEq{"items.published_at": formatTime(cutoff)})
		}
	}

	return q
}

func (r *ItemRepo) ListItems(filter ItemFilter) ([]Item, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	countSQL, countArgs, err := listQuery(filter).Columns("COUNT(*)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int
	if err := r.db.QueryRow(countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	querySQL, queryArgs, err := listQuery(filter).
		Columns(itemColumns).
		OrderBy("items.published_at IS NULL", "items.published_at DESC", "items.created_at DESC").
		Limit(uint64(filter.PageSize)).
		Offset(uint64((filter.Page - 1) * filter.PageSize)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.db.Query(querySQL, queryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, total, nil
}

func (r *ItemRepo) ListItemIDsWithoutAnalysis() ([]int64, error) {
	rows, err := r.db.Query(`
		SELECT id FROM items
		WHERE id NOT IN (SELECT item_id FROM mena_analysis)
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list unanalyzed items: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan item id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item ids: %w", err)
	}

	return ids, nil
}

func (r *ItemRepo) GetItemCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

func (r *ItemRepo) HashExists(hash string) (bool, error) {
	var id int64
	err := r.db.QueryRow(`SELECT id FROM items WHERE hash = ? LIMIT 1`, hash).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check hash: %w", err)
	}
	return true, nil
}

func (r *ItemRepo) CreateItem(item *Item) (bool, error) {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.Exec(`
		INSERT INTO items (type, title, company_name, url, source_id, published_at, summary, raw_json, hash, hidden, created_at)
		VALUES (?, ?, NULLIF(?, ''), ?, NULLIF(?, 0), ?, NULLIF(?, ''), NULLIF(?, ''), ?, ?, ?)
	`, item.Type, item.Title, item.CompanyName, item.URL, item.SourceID,
		formatTimePtr(item.PublishedAt), item.Summary, item.RawJSON, item.Hash,
		item.Hidden, formatTime(item.CreatedAt))
	if isUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create item: %w", err)
	}

	item.ID, err = res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to get item id: %w", err)
	}

	return true, nil
}

func (r *ItemRepo) AttachFundingDetail(detail *FundingDetail) error {
	investors, err := json.Marshal(detail.Investors)
	if err != nil {
		return fmt.Errorf("failed to encode investors: %w", err)
	}

	res, err := r.db.Exec(`
		INSERT INTO funding_details (item_id, round_type, amount_usd, investors)
		VALUES (?, NULLIF(?, ''), ?, ?)
	`, detail.ItemID, detail.RoundType, detail.AmountUSD, string(investors))
	if err != nil {
		return fmt.Errorf("failed to attach funding detail: %w", err)
	}

	detail.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get funding detail id: %w", err)
	}

	return nil
}

func (r *ItemRepo) AttachCompanyDetail(detail *CompanyDetail) error {
	res, err := r.db.Exec(`
		INSERT INTO company_details (item_id, one_liner, category, stage_hint)
		VALUES (?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''))
	`, detail.ItemID, detail.OneLiner, detail.Category, detail.StageHint)
	if err != nil {
		return fmt.Errorf("failed to attach company detail: %w", err)
	}

	detail.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get company detail id: %w", err)
	}

	return nil
}

func (r *ItemRepo) GetFundingDetail(itemID int64) (*FundingDetail, error) {
	var d FundingDetail
	var investors string
	err := r.db.QueryRow(`
		SELECT id, item_id, COALESCE(round_type, ''), amount_usd, COALESCE(investors, '[]')
		FROM funding_details WHERE item_id = ?
	`, itemID).Scan(&d.ID, &d.ItemID, &d.RoundType, &d.AmountUSD, &investors)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get funding detail: %w", err)
	}

	if err := json.Unmarshal([]byte(investors), &d.Investors); err != nil {
		return nil, fmt.Errorf("failed to decode investors: %w", err)
	}

	return &d, nil
}

func (r *ItemRepo) GetCompanyDetail(itemID int64) (*CompanyDetail, error) {
	var d CompanyDetail
	err := r.db.QueryRow(`
		SELECT id, item_id, COALESCE(one_liner, ''), COALESCE(category, ''), COALESCE(stage_hint, '')
		FROM company_details WHERE item_id = ?
	`, itemID).Scan(&d.ID, &d.ItemID, &d.OneLiner, &d.Category, &d.StageHint)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company detail: %w", err)
	}

	return &d, nil
}
