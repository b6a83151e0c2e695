package database

import (
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func createTestSource(t *testing.T, repo *SourceRepo, name, url string) *Source {
	t.Helper()
	source := &Source{Name: name, Type: SourceTypeRSS, URL: url, Category: "ai", Enabled: true}
	if err := repo.CreateSource(source); err != nil {
		t.Fatalf("Failed to create source: %v", err)
	}
	return source
}

func TestSourceRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSourceRepo(db)

	source := createTestSource(t, repo, "TechCrunch AI", "https://example.com/feed")
	if source.ID == 0 {
		t.Fatal("Expected an assigned id")
	}

	got, err := repo.GetSource(source.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("Expected the source to be found")
	}
	if got.Name != "TechCrunch AI" || got.URL != "https://example.com/feed" {
		t.Errorf("Unexpected source: %+v", got)
	}
	if !got.Enabled {
		t.Error("Expected source to be enabled")
	}

	byURL, err := repo.GetSourceByURL("https://example.com/feed")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if byURL == nil || byURL.ID != source.ID {
		t.Error("Expected lookup by URL to find the source")
	}

	missing, err := repo.GetSource(999)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for an unknown id")
	}
}

func TestSourceRepo_EnableDisable(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSourceRepo(db)

	source := createTestSource(t, repo, "A", "https://example.com/a")
	createTestSource(t, repo, "B", "https://example.com/b")

	if err := repo.SetSourceEnabled(source.ID, false); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	enabled, err := repo.ListEnabledSources()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(enabled) != 1 || enabled[0].Name != "B" {
		t.Errorf("Expected only B enabled, got %+v", enabled)
	}

	all, err := repo.ListSources()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 sources, got %d", len(all))
	}
}

func TestSourceRepo_UpdateCategory(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSourceRepo(db)

	source := createTestSource(t, repo, "A", "https://example.com/a")

	if err := repo.UpdateSourceCategory(source.ID, "funding"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	got, _ := repo.GetSource(source.ID)
	if got.Category != "funding" {
		t.Errorf("Expected updated category, got %q", got.Category)
	}
}

func TestItemRepo_CreateItem_DuplicateHash(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepo(db)

	item := &Item{
		Type:  ItemTypeFunding,
		Title: "Acme raises $5 million",
		URL:   "https://example.com/1",
		Hash:  "hash-1",
	}

	created, err := repo.CreateItem(item)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !created {
		t.Fatal("Expected first insert to succeed")
	}
	if item.ID == 0 {
		t.Error("Expected an assigned id")
	}

	dup := &Item{Type: ItemTypeFunding, Title: "Same story elsewhere", URL: "https://other.example.com/1", Hash: "hash-1"}
	created, err = repo.CreateItem(dup)
	if err != nil {
		t.Fatalf("Expected duplicate to be reported, not an error: %v", err)
	}
	if created {
		t.Error("Expected duplicate hash to be rejected")
	}

	count, _ := repo.GetItemCount()
	if count != 1 {
		t.Errorf("Expected 1 stored item, got %d", count)
	}

	exists, err := repo.HashExists("hash-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !exists {
		t.Error("Expected hash to exist")
	}
}

func TestItemRepo_GetItem_NullableFields(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepo(db)

	item := &Item{Type: ItemTypeCompany, Title: "DataCorp ships new model", URL: "https://example.com/2", Hash: "hash-2"}
	if _, err := repo.CreateItem(item); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	got, err := repo.GetItem(item.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("Expected the item to be found")
	}
	if got.PublishedAt != nil {
		t.Error("Expected absent publish time to stay absent")
	}
	if got.CompanyName != "" || got.Summary != "" || got.SourceID != 0 {
		t.Errorf("Expected empty nullable fields, got %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("Expected created_at to be set")
	}
}

func TestItemRepo_ListItems_Filters(t *testing.T) {
	db := setupTestDB(t)
	itemRepo := NewItemRepo(db)
	analysisRepo := NewAnalysisRepo(db)

	now := time.Now().UTC()
	old := now.AddDate(0, -2, 0)

	items := []*Item{
		{Type: ItemTypeFunding, Title: "Acme raises $5M", CompanyName: "Acme", URL: "https://e.com/1", Hash: "h1", PublishedAt: &now},
		{Type: ItemTypeCompany, Title: "DataCorp launch", CompanyName: "DataCorp", URL: "https://e.com/2", Hash: "h2", PublishedAt: &now},
		{Type: ItemTypeFunding, Title: "OldCo raises $1M", CompanyName: "OldCo", URL: "https://e.com/3", Hash: "h3", PublishedAt: &old},
		{Type: ItemTypeFunding, Title: "Hidden story", CompanyName: "Ghost", URL: "https://e.com/4", Hash: "h4", Hidden: true},
	}
	for _, item := range items {
		if _, err := itemRepo.CreateItem(item); err != nil {
			t.Fatalf("Failed to create item: %v", err)
		}
	}

	// Hidden items are excluded by default.
	listed, total, err := itemRepo.ListItems(ItemFilter{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if total != 3 {
		t.Errorf("Expected 3 visible items, got %d", total)
	}
	for _, item := range listed {
		if item.Hidden {
			t.Error("Expected hidden items to be excluded")
		}
	}

	// show_hidden includes them.
	_, total, err = itemRepo.ListItems(ItemFilter{ShowHidden: true})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if total != 4 {
		t.Errorf("Expected 4 items with hidden, got %d", total)
	}

	// Type filter.
	_, total, err = itemRepo.ListItems(ItemFilter{Type: ItemTypeCompany})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if total != 1 {
		t.Errorf("Expected 1 company item, got %d", total)
	}

	// Substring search over title and company name.
	_, total, err = itemRepo.ListItems(ItemFilter{Query: "DataCorp"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if total != 1 {
		t.Errorf("Expected 1 search hit, got %d", total)
	}

	// Date range excludes the two-month-old item.
	_, total, err = itemRepo.ListItems(ItemFilter{DateRange: "30d"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if total != 2 {
		t.Errorf("Expected 2 recent items, got %d", total)
	}

	// Minimum score joins the analysis table.
	if _, err := analysisRepo.CreateAnalysis(&Analysis{ItemID: items[0].ID, FitScore: 80, Summary: "s", ModelName: "stub"}); err != nil {
		t.Fatalf("Failed to create analysis: %v", err)
	}
	if _, err := analysisRepo.CreateAnalysis(&Analysis{ItemID: items[1].ID, FitScore: 30, Summary: "s", ModelName: "stub"}); err != nil {
		t.Fatalf("Failed to create analysis: %v", err)
	}

	minScore := 50
	listed, total, err = itemRepo.ListItems(ItemFilter{MinScore: &minScore})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if total != 1 || listed[0].ID != items[0].ID {
		t.Errorf("Expected only the high-scored item, got %d rows", total)
	}
}

func TestItemRepo_ListItems_OrderingAndPagination(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepo(db)

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	older := base.Add(-48 * time.Hour)

	undated := &Item{Type: ItemTypeCompany, Title: "Undated", URL: "https://e.com/u", Hash: "hu"}
	newest := &Item{Type: ItemTypeCompany, Title: "Newest", URL: "https://e.com/n", Hash: "hn", PublishedAt: &base}
	oldest := &Item{Type: ItemTypeCompany, Title: "Oldest", URL: "https://e.com/o", Hash: "ho", PublishedAt: &older}

	for _, item := range []*Item{undated, newest, oldest} {
		if _, err := repo.CreateItem(item); err != nil {
			t.Fatalf("Failed to create item: %v", err)
		}
	}

	listed, total, err := repo.ListItems(ItemFilter{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if total != 3 {
		t.Fatalf("Expected 3 items, got %d", total)
	}

	// Published desc, undated items last.
	if listed[0].Title != "Newest" || listed[1].Title != "Oldest" || listed[2].Title != "Undated" {
		t.Errorf("Unexpected order: %s, %s, %s", listed[0].Title, listed[1].Title, listed[2].Title)
	}

	// Pagination.
	page, total, err := repo.ListItems(ItemFilter{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if total != 3 {
		t.Errorf("Expected total 3 on any page, got %d", total)
	}
	if len(page) != 1 || page[0].Title != "Undated" {
		t.Errorf("Unexpected second page: %+v", page)
	}
}

func TestItemRepo_Details(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepo(db)

	funding := &Item{Type: ItemTypeFunding, Title: "Acme raises $5M", URL: "https://e.com/1", Hash: "h1"}
	company := &Item{Type: ItemTypeCompany, Title: "DataCorp launch", URL: "https://e.com/2", Hash: "h2"}
	for _, item := range []*Item{funding, company} {
		if _, err := repo.CreateItem(item); err != nil {
			t.Fatalf("Failed to create item: %v", err)
		}
	}

	amount := 5_000_000.0
	err := repo.AttachFundingDetail(&FundingDetail{
		ItemID:    funding.ID,
		RoundType: "seed",
		AmountUSD: &amount,
		Investors: []string{"BigFund", "SeedCo"},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	detail, err := repo.GetFundingDetail(funding.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if detail == nil {
		t.Fatal("Expected a funding detail")
	}
	if detail.RoundType != "seed" {
		t.Errorf("Unexpected round type: %q", detail.RoundType)
	}
	if detail.AmountUSD == nil || *detail.AmountUSD != amount {
		t.Errorf("Unexpected amount: %v", detail.AmountUSD)
	}
	if len(detail.Investors) != 2 || detail.Investors[0] != "BigFund" {
		t.Errorf("Unexpected investors: %v", detail.Investors)
	}

	if err := repo.AttachCompanyDetail(&CompanyDetail{ItemID: company.ID, OneLiner: "AI infra."}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	companyDetail, err := repo.GetCompanyDetail(company.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if companyDetail == nil || companyDetail.OneLiner != "AI infra." {
		t.Errorf("Unexpected company detail: %+v", companyDetail)
	}

	// No detail rows for the wrong item.
	if detail, _ := repo.GetFundingDetail(company.ID); detail != nil {
		t.Error("Expected no funding detail on the company item")
	}
}

func TestItemRepo_ListItemIDsWithoutAnalysis(t *testing.T) {
	db := setupTestDB(t)
	itemRepo := NewItemRepo(db)
	analysisRepo := NewAnalysisRepo(db)

	first := &Item{Type: ItemTypeCompany, Title: "A", URL: "https://e.com/1", Hash: "h1"}
	second := &Item{Type: ItemTypeCompany, Title: "B", URL: "https://e.com/2", Hash: "h2"}
	for _, item := range []*Item{first, second} {
		if _, err := itemRepo.CreateItem(item); err != nil {
			t.Fatalf("Failed to create item: %v", err)
		}
	}

	if _, err := analysisRepo.CreateAnalysis(&Analysis{ItemID: first.ID, FitScore: 50, Summary: "s", ModelName: "stub"}); err != nil {
		t.Fatalf("Failed to create analysis: %v", err)
	}

	ids, err := itemRepo.ListItemIDsWithoutAnalysis()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(ids) != 1 || ids[0] != second.ID {
		t.Errorf("Expected only the unanalyzed item, got %v", ids)
	}
}

func TestAnalysisRepo_OnePerItem(t *testing.T) {
	db := setupTestDB(t)
	itemRepo := NewItemRepo(db)
	analysisRepo := NewAnalysisRepo(db)

	item := &Item{Type: ItemTypeFunding, Title: "Acme raises $5M", URL: "https://e.com/1", Hash: "h1"}
	if _, err := itemRepo.CreateItem(item); err != nil {
		t.Fatalf("Failed to create item: %v", err)
	}

	analysis := &Analysis{
		ItemID:                      item.ID,
		FitScore:                    72,
		Summary:                     "Strong fit.",
		BudgetBuyerExists:           18,
		LocalizationArabicBilingual: 12,
		RegulatoryFriction:          14,
		DistributionPath:            15,
		TimeToRevenue:               13,
		ModelName:                   "test-model",
	}

	created, err := analysisRepo.CreateAnalysis(analysis)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !created {
		t.Fatal("Expected first analysis to be created")
	}

	created, err = analysisRepo.CreateAnalysis(&Analysis{ItemID: item.ID, FitScore: 10, Summary: "x", ModelName: "other"})
	if err != nil {
		t.Fatalf("Expected conflict to be reported, not an error: %v", err)
	}
	if created {
		t.Error("Expected second analysis for the same item to be rejected")
	}

	got, err := analysisRepo.GetAnalysis(item.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("Expected the analysis to be found")
	}
	if got.FitScore != 72 || got.ModelName != "test-model" {
		t.Errorf("Unexpected analysis: %+v", got)
	}
	if got.BudgetBuyerExists != 18 || got.TimeToRevenue != 13 {
		t.Errorf("Unexpected rubric values: %+v", got)
	}

	count, _ := analysisRepo.GetAnalysisCount()
	if count != 1 {
		t.Errorf("Expected 1 analysis, got %d", count)
	}
}

func TestRunRepo_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	sourceRepo := NewSourceRepo(db)
	runRepo := NewRunRepo(db)

	source := createTestSource(t, sourceRepo, "A", "https://example.com/a")

	runID, err := runRepo.CreateRun(source.ID)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	runs, err := runRepo.ListRuns(source.ID, 10)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(runs))
	}
	if runs[0].Status != RunStatusRunning {
		t.Errorf("Expected running status, got %s", runs[0].Status)
	}
	if runs[0].FinishedAt != nil {
		t.Error("Expected no finish time yet")
	}

	if err := runRepo.FinishRun(runID, RunStatusFailed, 3, "fetch failed"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	runs, err = runRepo.ListRuns(source.ID, 10)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	run := runs[0]
	if run.Status != RunStatusFailed {
		t.Errorf("Expected failed status, got %s", run.Status)
	}
	if run.ItemsAdded != 3 {
		t.Errorf("Expected partial count 3, got %d", run.ItemsAdded)
	}
	if run.Error != "fetch failed" {
		t.Errorf("Expected error text, got %q", run.Error)
	}
	if run.FinishedAt == nil {
		t.Error("Expected a finish time")
	}

	// Filtering by an unrelated source yields nothing.
	other, err := runRepo.ListRuns(999, 10)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("Expected no runs for unknown source, got %d", len(other))
	}
}
