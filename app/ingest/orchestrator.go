package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mena-signal/server/app/database"
)

// FeedFetcher retrieves candidates for a source URL. A failing source yields
// an empty slice, never an error.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) []Candidate
}

var _ FeedFetcher = (*Fetcher)(nil)

// AnalysisSubmitter hands newly persisted items off for asynchronous
// market-fit analysis.
type AnalysisSubmitter interface {
	SubmitAnalysis(ctx context.Context, itemID int64) error
}

// SubmitterFunc adapts a function to the AnalysisSubmitter interface.
type SubmitterFunc func(ctx context.Context, itemID int64) error

func (f SubmitterFunc) SubmitAnalysis(ctx context.Context, itemID int64) error {
	return f(ctx, itemID)
}

const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

// Result describes the outcome of one ingestion pass over one source.
type Result struct {
	Status     string `json:"status"`
	ItemsAdded int    `json:"items_added"`
	Error      string `json:"error,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// Orchestrator coordinates one ingestion pass per source: fetch, dedup,
// classify, extract, persist, enqueue analysis. Failures are contained at
// the per-source boundary; partial progress within a failed pass is kept.
type Orchestrator struct {
	sourceRepo database.SourceRepository
	itemRepo   database.ItemRepository
	runRepo    database.RunRepository
	fetcher    FeedFetcher
	submitter  AnalysisSubmitter
}

func NewOrchestrator(sourceRepo database.SourceRepository, itemRepo database.ItemRepository,
	runRepo database.RunRepository, fetcher FeedFetcher, submitter AnalysisSubmitter) *Orchestrator {
	return &Orchestrator{
		sourceRepo: sourceRepo,
		itemRepo:   itemRepo,
		runRepo:    runRepo,
		fetcher:    fetcher,
		submitter:  submitter,
	}
}

// IngestSource runs one pass over one source. Every pass that reaches run
// creation leaves exactly one terminal run record, success or failed.
func (o *Orchestrator) IngestSource(ctx context.Context, sourceID int64) Result {
	source, err := o.sourceRepo.GetSource(sourceID)
	if err != nil {
		slog.Error("Failed to load source", "source_id", sourceID, "error", err)
		return Result{Status: ResultFailed, Error: err.Error()}
	}
	if source == nil || !source.Enabled {
		return Result{Status: ResultSkipped, Reason: "Source not found or disabled"}
	}

	runID, err := o.runRepo.CreateRun(sourceID)
	if err != nil {
		slog.Error("Failed to create ingest run", "source_id", sourceID, "error", err)
		return Result{Status: ResultFailed, Error: err.Error()}
	}

	start := time.Now()
	added, err := o.processSource(ctx, source)
	if err != nil {
		slog.Error("Ingestion pass failed", "source", source.Name, "source_id", sourceID, "error", err)
		if finishErr := o.runRepo.FinishRun(runID, database.RunStatusFailed, added, err.Error()); finishErr != nil {
			slog.Error("Failed to finalize run", "run_id", runID, "error", finishErr)
		}
		return Result{Status: ResultFailed, ItemsAdded: added, Error: err.Error()}
	}

	if err := o.runRepo.FinishRun(runID, database.RunStatusSuccess, added, ""); err != nil {
		slog.Error("Failed to finalize run", "run_id", runID, "error", err)
	}

	slog.Info("Ingestion pass completed",
		"source", source.Name,
		"source_id", sourceID,
		"duration", time.Since(start),
		"new", added)

	return Result{Status: ResultSuccess, ItemsAdded: added}
}

func (o *Orchestrator) processSource(ctx context.Context, source *database.Source) (int, error) {
	if source.Type != database.SourceTypeRSS {
		return 0, nil
	}

	candidates := o.fetcher.Fetch(ctx, source.URL)

	added := 0
	for _, candidate := range candidates {
		select {
		case <-ctx.Done():
			return added, ctx.Err()
		default:
		}

		if candidate.URL == "" {
			continue
		}

		hash := Fingerprint(candidate.URL, candidate.Title, candidate.PublishedAt)

		exists, err := o.itemRepo.HashExists(hash)
		if err != nil {
			return added, fmt.Errorf("failed to check for duplicates: %w", err)
		}
		if exists {
			continue
		}

		itemType := Classify(candidate.Title, candidate.Summary, source.Category)

		item := database.Item{
			Type:        itemType,
			Title:       candidate.Title,
			CompanyName: ExtractCompanyName(candidate.Title),
			URL:         candidate.URL,
			SourceID:    source.ID,
			PublishedAt: candidate.PublishedAt,
			Summary:     candidate.Summary,
			RawJSON:     candidate.Raw,
			Hash:        hash,
		}

		created, err := o.itemRepo.CreateItem(&item)
		if err != nil {
			return added, fmt.Errorf("failed to store item: %w", err)
		}
		if !created {
			// Lost a race with a concurrent pass on the same fingerprint.
			continue
		}

		if err := o.attachDetail(&item, candidate); err != nil {
			return added, err
		}

		if err := o.submitter.SubmitAnalysis(ctx, item.ID); err != nil {
			slog.Warn("Failed to submit analysis", "item_id", item.ID, "error", err)
		}

		added++
	}

	return added, nil
}

func (o *Orchestrator) attachDetail(item *database.Item, candidate Candidate) error {
	if item.Type == database.ItemTypeFunding {
		facts := ExtractFundingFacts(candidate.Title, candidate.Summary)
		detail := database.FundingDetail{
			ItemID:    item.ID,
			RoundType: facts.RoundType,
			AmountUSD: facts.AmountUSD,
			Investors: facts.Investors,
		}
		if err := o.itemRepo.AttachFundingDetail(&detail); err != nil {
			return fmt.Errorf("failed to attach funding detail: %w", err)
		}
		return nil
	}

	detail := database.CompanyDetail{
		ItemID:   item.ID,
		OneLiner: truncate(candidate.Summary, 200),
	}
	if err := o.itemRepo.AttachCompanyDetail(&detail); err != nil {
		return fmt.Errorf("failed to attach company detail: %w", err)
	}
	return nil
}

// IngestAll runs one pass per enabled source. A failed source does not
// block the remaining sources.
func (o *Orchestrator) IngestAll(ctx context.Context) map[int64]Result {
	results := make(map[int64]Result)

	sources, err := o.sourceRepo.ListEnabledSources()
	if err != nil {
		slog.Error("Failed to list enabled sources", "error", err)
		return results
	}

	for _, source := range sources {
		results[source.ID] = o.IngestSource(ctx, source.ID)
	}

	return results
}
