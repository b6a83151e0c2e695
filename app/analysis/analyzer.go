package analysis

import (
	"context"

	"github.com/mena-signal/server/app/database"
)

// Rubric is the five-dimension breakdown underlying the 0-100 fit score.
// Each dimension is clamped to 0-20.
type Rubric struct {
	BudgetBuyerExists           int `json:"budget_buyer_exists"`
	LocalizationArabicBilingual int `json:"localization_arabic_bilingual"`
	RegulatoryFriction          int `json:"regulatory_friction"`
	DistributionPath            int `json:"distribution_path"`
	TimeToRevenue               int `json:"time_to_revenue"`
}

// Result is a produced market-fit assessment before persistence.
type Result struct {
	FitScore  int    `json:"fit_score"`
	Summary   string `json:"mena_summary"`
	Rubric    Rubric `json:"rubric"`
	ModelName string `json:"model_name"`
}

// Input carries the item fields and optional detail sub-records an analyzer
// assesses.
type Input struct {
	Title       string
	CompanyName string
	ItemType    database.ItemType
	Summary     string
	Funding     *database.FundingDetail
	Company     *database.CompanyDetail
}

// Analyzer produces a market-fit assessment for an item. Implementations
// never fail: a backend fault degrades to the deterministic stub payload.
type Analyzer interface {
	Analyze(ctx context.Context, in Input) Result
}

const (
	// StubModelName marks analyses produced without a model backend.
	StubModelName = "stub"

	stubSummary = "This opportunity requires further analysis to assess MENA applicability. " +
		"Key factors to evaluate include regional buyer appetite, localization requirements, " +
		"and regulatory considerations."
)

// Stub is the deterministic fallback analyzer used when no model backend is
// configured. It guarantees the pipeline always produces a usable analysis.
type Stub struct{}

var _ Analyzer = (*Stub)(nil)

func NewStub() *Stub {
	return &Stub{}
}

func (s *Stub) Analyze(ctx context.Context, in Input) Result {
	result := stubResult()
	result.ModelName = StubModelName
	return result
}

func stubResult() Result {
	return Result{
		FitScore: 50,
		Summary:  stubSummary,
		Rubric: Rubric{
			BudgetBuyerExists:           10,
			LocalizationArabicBilingual: 10,
			RegulatoryFriction:          10,
			DistributionPath:            10,
			TimeToRevenue:               10,
		},
	}
}
