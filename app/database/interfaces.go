package database

type SourceRepository interface {
	GetSource(id int64) (*Source, error)
	GetSourceByURL(url string) (*Source, error)
	ListSources() ([]Source, error)
	ListEnabledSources() ([]Source, error)
	GetSourceCount() (int, error)

	CreateSource(source *Source) error
	SetSourceEnabled(id int64, enabled bool) error
	UpdateSourceCategory(id int64, category string) error
}

type ItemRepository interface {
	GetItem(id int64) (*Item, error)
	ListItems(filter ItemFilter) ([]Item, int, error)
	ListItemIDsWithoutAnalysis() ([]int64, error)
	GetItemCount() (int, error)
	HashExists(hash string) (bool, error)

	// CreateItem inserts the item and reports false when another item with
	// the same hash already exists.
	CreateItem(item *Item) (bool, error)
	AttachFundingDetail(detail *FundingDetail) error
	AttachCompanyDetail(detail *CompanyDetail) error
	GetFundingDetail(itemID int64) (*FundingDetail, error)
	GetCompanyDetail(itemID int64) (*CompanyDetail, error)
}

type AnalysisRepository interface {
	GetAnalysis(itemID int64) (*Analysis, error)
	GetAnalysisCount() (int, error)

	// CreateAnalysis inserts the analysis and reports false when the item
	// already has one.
	CreateAnalysis(analysis *Analysis) (bool, error)
}

type RunRepository interface {
	CreateRun(sourceID int64) (int64, error)
	FinishRun(id int64, status RunStatus, itemsAdded int, errText string) error
	ListRuns(sourceID int64, limit int) ([]IngestRun, error)
}
