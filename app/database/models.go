package database

import (
	"time"
)

type SourceType string

const (
	SourceTypeRSS    SourceType = "rss"
	SourceTypeAPI    SourceType = "api"
	SourceTypeManual SourceType = "manual"
)

type ItemType string

const (
	ItemTypeFunding ItemType = "funding"
	ItemTypeCompany ItemType = "company"
)

type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

type Source struct {
	ID        int64
	Name      string
	Type      SourceType
	URL       string
	Category  string
	Enabled   bool
	CreatedAt time.Time
}

type Item struct {
	ID          int64
	Type        ItemType
	Title       string
	CompanyName string
	URL         string
	SourceID    int64 // 0 when the item has no source
	PublishedAt *time.Time
	Summary     string
	RawJSON     string
	Hash        string
	Hidden      bool
	CreatedAt   time.Time
}

type FundingDetail struct {
	ID        int64
	ItemID    int64
	RoundType string
	AmountUSD *float64
	Investors []string
}

type CompanyDetail struct {
	ID        int64
	ItemID    int64
	OneLiner  string
	Category  string
	StageHint string
}

// Analysis is the persisted market-fit assessment, one per item. The five
// rubric dimensions are stored as named columns so the shape is closed.
type Analysis struct {
	ID                          int64
	ItemID                      int64
	FitScore                    int
	Summary                     string
	BudgetBuyerExists           int
	LocalizationArabicBilingual int
	RegulatoryFriction          int
	DistributionPath            int
	TimeToRevenue               int
	ModelName                   string
	CreatedAt                   time.Time
}

type IngestRun struct {
	ID         int64
	SourceID   int64
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     RunStatus
	ItemsAdded int
	Error      string
}

// ItemFilter describes the optional predicates of an item listing query.
type ItemFilter struct {
	Type       ItemType // empty matches both types
	Query      string   // substring over title, company name and summary
	MinScore   *int     // joins against analysis when set
	DateRange  string   // "24h", "7d" or "30d"
	ShowHidden bool
	Page       int
	PageSize   int
}
