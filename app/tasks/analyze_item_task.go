package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mena-signal/server/app/analysis"
)

type AnalyzeItemTask struct {
	Task
	service *analysis.Service
	itemID  int64
}

func NewAnalyzeItemTask(service *analysis.Service, itemID int64) *AnalyzeItemTask {
	return &AnalyzeItemTask{
		Task:    NewTask(TaskTypeAnalyzeItem, fmt.Sprintf("item-%d", itemID)),
		service: service,
		itemID:  itemID,
	}
}

func (t *AnalyzeItemTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	outcome, err := t.service.AnalyzeItem(ctx, t.itemID)
	if err != nil {
		return fmt.Errorf("failed to analyze item %d: %w", t.itemID, err)
	}

	slog.Info("Task completed",
		"type", "AnalyzeItem",
		"item_id", t.itemID,
		"duration", t.GetDuration(),
		"status", outcome.Status)

	return nil
}
