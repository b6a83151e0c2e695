package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mena-signal/server/app/database"
)

const (
	OutcomeSuccess = "success"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

// Outcome describes the result of one analysis request for one item.
type Outcome struct {
	Status   string `json:"status"`
	FitScore int    `json:"fit_score,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Service runs market-fit analysis for persisted items. Analysis is
// one-shot per item: an existing record makes the request a no-op.
type Service struct {
	itemRepo     database.ItemRepository
	analysisRepo database.AnalysisRepository
	analyzer     Analyzer
}

func NewService(itemRepo database.ItemRepository, analysisRepo database.AnalysisRepository, analyzer Analyzer) *Service {
	return &Service{
		itemRepo:     itemRepo,
		analysisRepo: analysisRepo,
		analyzer:     analyzer,
	}
}

func (s *Service) AnalyzeItem(ctx context.Context, itemID int64) (Outcome, error) {
	item, err := s.itemRepo.GetItem(itemID)
	if err != nil {
		return Outcome{Status: OutcomeError}, fmt.Errorf("failed to load item: %w", err)
	}
	if item == nil {
		return Outcome{Status: OutcomeError, Message: "Item not found"}, nil
	}

	existing, err := s.analysisRepo.GetAnalysis(itemID)
	if err != nil {
		return Outcome{Status: OutcomeError}, fmt.Errorf("failed to check existing analysis: %w", err)
	}
	if existing != nil {
		return Outcome{Status: OutcomeSkipped, Message: "Analysis already exists"}, nil
	}

	input, err := s.buildInput(item)
	if err != nil {
		return Outcome{Status: OutcomeError}, err
	}

	result := s.analyzer.Analyze(ctx, input)

	created, err := s.analysisRepo.CreateAnalysis(&database.Analysis{
		ItemID:                      itemID,
		FitScore:                    result.FitScore,
		Summary:                     result.Summary,
		BudgetBuyerExists:           result.Rubric.BudgetBuyerExists,
		LocalizationArabicBilingual: result.Rubric.LocalizationArabicBilingual,
		RegulatoryFriction:          result.Rubric.RegulatoryFriction,
		DistributionPath:            result.Rubric.DistributionPath,
		TimeToRevenue:               result.Rubric.TimeToRevenue,
		ModelName:                   result.ModelName,
	})
	if err != nil {
		return Outcome{Status: OutcomeError}, fmt.Errorf("failed to store analysis: %w", err)
	}
	if !created {
		// Lost a race with a concurrent analysis of the same item.
		return Outcome{Status: OutcomeSkipped, Message: "Analysis already exists"}, nil
	}

	slog.Info("Item analyzed", "item_id", itemID, "fit_score", result.FitScore, "model", result.ModelName)

	return Outcome{Status: OutcomeSuccess, FitScore: result.FitScore}, nil
}

func (s *Service) buildInput(item *database.Item) (Input, error) {
	input := Input{
		Title:       item.Title,
		CompanyName: item.CompanyName,
		ItemType:    item.Type,
		Summary:     item.Summary,
	}

	switch item.Type {
	case database.ItemTypeFunding:
		detail, err := s.itemRepo.GetFundingDetail(item.ID)
		if err != nil {
			return Input{}, fmt.Errorf("failed to load funding detail: %w", err)
		}
		input.Funding = detail
	case database.ItemTypeCompany:
		detail, err := s.itemRepo.GetCompanyDetail(item.ID)
		if err != nil {
			return Input{}, fmt.Errorf("failed to load company detail: %w", err)
		}
		input.Company = detail
	}

	return input, nil
}
