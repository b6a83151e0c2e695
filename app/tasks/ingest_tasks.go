package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mena-signal/server/app/database"
	"github.com/mena-signal/server/app/ingest"
)

type SyncSourcesTask struct {
	Task
	sourcesFile string
	sourceRepo  database.SourceRepository
}

func NewSyncSourcesTask(sourcesFile string, sourceRepo database.SourceRepository) *SyncSourcesTask {
	return &SyncSourcesTask{
		Task:        NewTask(TaskTypeSyncSources, sourcesFile),
		sourcesFile: sourcesFile,
		sourceRepo:  sourceRepo,
	}
}

func (t *SyncSourcesTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	added, err := ingest.SyncSources(t.sourcesFile, t.sourceRepo)
	if err != nil {
		return fmt.Errorf("failed to sync source catalog: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncSources",
		"duration", t.GetDuration(),
		"added", added)

	return nil
}

type IngestSourceTask struct {
	Task
	orchestrator *ingest.Orchestrator
	sourceID     int64
}

func NewIngestSourceTask(orchestrator *ingest.Orchestrator, sourceID int64) *IngestSourceTask {
	return &IngestSourceTask{
		Task:         NewTask(TaskTypeIngestSource, fmt.Sprintf("source-%d", sourceID)),
		orchestrator: orchestrator,
		sourceID:     sourceID,
	}
}

func (t *IngestSourceTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// A failed pass already left a terminal run record; returning an error
	// here would retry the pass and record additional failures.
	result := t.orchestrator.IngestSource(ctx, t.sourceID)

	slog.Info("Task completed",
		"type", "IngestSource",
		"source_id", t.sourceID,
		"duration", t.GetDuration(),
		"status", result.Status,
		"new", result.ItemsAdded)

	return nil
}

type IngestAllTask struct {
	Task
	orchestrator *ingest.Orchestrator
}

func NewIngestAllTask(orchestrator *ingest.Orchestrator) *IngestAllTask {
	return &IngestAllTask{
		Task:         NewTask(TaskTypeIngestAll, "all-sources"),
		orchestrator: orchestrator,
	}
}

func (t *IngestAllTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	results := t.orchestrator.IngestAll(ctx)

	added := 0
	failed := 0
	for _, result := range results {
		added += result.ItemsAdded
		if result.Status == ingest.ResultFailed {
			failed++
		}
	}

	slog.Info("Task completed",
		"type", "IngestAll",
		"duration", t.GetDuration(),
		"sources", len(results),
		"failed", failed,
		"new", added)

	return nil
}
