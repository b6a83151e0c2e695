package database

import (
	"database/sql"
	"fmt"
	"time"
)

// AnalysisRepo handles database operations for market-fit analyses.
type AnalysisRepo struct {
	db *DB
}

var _ AnalysisRepository = (*AnalysisRepo)(nil)

func NewAnalysisRepo(db *DB) *AnalysisRepo {
	return &AnalysisRepo{db: db}
}

func (r *AnalysisRepo) GetAnalysis(itemID int64) (*Analysis, error) {
	var a Analysis
	var createdAt string
	err := r.db.QueryRow(`
		SELECT id, item_id, fit_score, mena_summary,
		       budget_buyer_exists, localization_arabic_bilingual,
		       regulatory_friction, distribution_path, time_to_revenue,
		       COALESCE(model_name, ''), created_at
		FROM mena_analysis WHERE item_id = ?
	`, itemID).Scan(
		&a.ID, &a.ItemID, &a.FitScore, &a.Summary,
		&a.BudgetBuyerExists, &a.LocalizationArabicBilingual,
		&a.RegulatoryFriction, &a.DistributionPath, &a.TimeToRevenue,
		&a.ModelName, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	a.CreatedAt = parseTime(createdAt)

	return &a, nil
}

func (r *AnalysisRepo) GetAnalysisCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM mena_analysis`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get analysis count: %w", err)
	}
	return count, nil
}

func (r *AnalysisRepo) CreateAnalysis(analysis *Analysis) (bool, error) {
	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.Exec(`
		INSERT INTO mena_analysis (item_id, fit_score, mena_summary,
			budget_buyer_exists, localization_arabic_bilingual,
			regulatory_friction, distribution_path, time_to_revenue,
			model_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''), ?)
	`, analysis.ItemID, analysis.FitScore, analysis.Summary,
		analysis.BudgetBuyerExists, analysis.LocalizationArabicBilingual,
		analysis.RegulatoryFriction, analysis.DistributionPath, analysis.TimeToRevenue,
		analysis.ModelName, formatTime(analysis.CreatedAt))
	if isUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create analysis: %w", err)
	}

	analysis.ID, err = res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to get analysis id: %w", err)
	}

	return true, nil
}
