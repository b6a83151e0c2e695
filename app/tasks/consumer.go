package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/mena-signal/server/app/analysis"
	"github.com/mena-signal/server/app/ingest"
)

// Consumer reads job envelopes from the broker topic and executes them on
// the scheduler's worker pool. Offsets are committed after processing;
// handlers are idempotent, so at-least-once delivery is acceptable.
type Consumer struct {
	reader       *kafka.Reader
	scheduler    TaskSchedulerInterface
	orchestrator *ingest.Orchestrator
	service      *analysis.Service
}

func NewConsumer(brokers []string, topic string, group string, scheduler TaskSchedulerInterface,
	orchestrator *ingest.Orchestrator, service *analysis.Service) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        group,
		MinBytes:       1e3,
		MaxBytes:       10e6,
		CommitInterval: 0, // Disable auto-commit; manual commit only
	})

	return &Consumer{
		reader:       reader,
		scheduler:    scheduler,
		orchestrator: orchestrator,
		service:      service,
	}
}

func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	slog.Info("Job consumer started", "topic", c.reader.Config().Topic, "group", c.reader.Config().GroupID)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				slog.Info("Job consumer stopped")
				return
			}
			slog.Error("Failed to fetch job message", "error", err)
			continue
		}

		c.handle(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			slog.Error("Failed to commit job offset", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	var envelope jobEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		slog.Warn("Discarding malformed job envelope", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		return
	}

	var task TaskInterface
	switch envelope.Type {
	case TaskTypeAnalyzeItem:
		task = NewAnalyzeItemTask(c.service, envelope.ID)
	case TaskTypeIngestSource:
		task = NewIngestSourceTask(c.orchestrator, envelope.ID)
	case TaskTypeIngestAll:
		task = NewIngestAllTask(c.orchestrator)
	default:
		slog.Warn("Discarding job with unknown type", "type", string(envelope.Type), "job_id", envelope.JobID)
		return
	}

	if err := c.scheduler.EnqueueTask(task); err != nil {
		slog.Warn("Task queue unavailable, executing job synchronously", "type", string(envelope.Type), "job_id", envelope.JobID, "error", err)
		task.Start()
		if execErr := task.Execute(ctx); execErr != nil {
			slog.Error("Job execution failed", "type", string(envelope.Type), "job_id", envelope.JobID, "error", execErr)
		}
	}
}
