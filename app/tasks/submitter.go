package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/mena-signal/server/app/analysis"
	"github.com/mena-signal/server/app/ingest"
)

var _ Submitter = (*InlineSubmitter)(nil)
var _ Submitter = (*KafkaSubmitter)(nil)

// InlineSubmitter dispatches work onto the in-process scheduler queue.
// When the queue is full the task runs synchronously on the caller's
// goroutine instead of being dropped.
type InlineSubmitter struct {
	scheduler    TaskSchedulerInterface
	orchestrator *ingest.Orchestrator
	service      *analysis.Service
}

func NewInlineSubmitter(scheduler TaskSchedulerInterface, orchestrator *ingest.Orchestrator,
	service *analysis.Service) *InlineSubmitter {
	return &InlineSubmitter{
		scheduler:    scheduler,
		orchestrator: orchestrator,
		service:      service,
	}
}

func (s *InlineSubmitter) SubmitAnalysis(ctx context.Context, itemID int64) error {
	task := NewAnalyzeItemTask(s.service, itemID)
	return s.dispatch(ctx, task)
}

func (s *InlineSubmitter) SubmitIngestSource(ctx context.Context, sourceID int64) (string, error) {
	task := NewIngestSourceTask(s.orchestrator, sourceID)
	return task.GetID(), s.dispatch(ctx, task)
}

func (s *InlineSubmitter) SubmitIngestAll(ctx context.Context) (string, error) {
	task := NewIngestAllTask(s.orchestrator)
	return task.GetID(), s.dispatch(ctx, task)
}

func (s *InlineSubmitter) dispatch(ctx context.Context, task TaskInterface) error {
	if err := s.scheduler.EnqueueTask(task); err != nil {
		slog.Warn("Task queue unavailable, executing synchronously", "type", string(task.GetType()), "subject", task.GetSubject(), "error", err)
		task.Start()
		return task.Execute(ctx)
	}
	return nil
}

type jobEnvelope struct {
	JobID string   `json:"job_id"`
	Type  TaskType `json:"type"`
	ID    int64    `json:"id"`
}

// KafkaSubmitter publishes job envelopes to a broker topic so a consumer
// group can pick them up. Publish failures degrade to the inline path.
type KafkaSubmitter struct {
	writer *kafka.Writer
	inline *InlineSubmitter
}

func NewKafkaSubmitter(brokers []string, topic string, inline *InlineSubmitter) *KafkaSubmitter {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     brokers,
		Topic:       topic,
		MaxAttempts: 3,
	})

	return &KafkaSubmitter{
		writer: writer,
		inline: inline,
	}
}

func (s *KafkaSubmitter) Close() error {
	return s.writer.Close()
}

func (s *KafkaSubmitter) SubmitAnalysis(ctx context.Context, itemID int64) error {
	task := NewAnalyzeItemTask(s.inline.service, itemID)
	if err := s.publish(ctx, task.GetID(), TaskTypeAnalyzeItem, itemID); err != nil {
		slog.Warn("Job publish failed, falling back to inline execution", "type", string(TaskTypeAnalyzeItem), "item_id", itemID, "error", err)
		return s.inline.dispatch(ctx, task)
	}
	return nil
}

func (s *KafkaSubmitter) SubmitIngestSource(ctx context.Context, sourceID int64) (string, error) {
	task := NewIngestSourceTask(s.inline.orchestrator, sourceID)
	if err := s.publish(ctx, task.GetID(), TaskTypeIngestSource, sourceID); err != nil {
		slog.Warn("Job publish failed, falling back to inline execution", "type", string(TaskTypeIngestSource), "source_id", sourceID, "error", err)
		return task.GetID(), s.inline.dispatch(ctx, task)
	}
	return task.GetID(), nil
}

func (s *KafkaSubmitter) SubmitIngestAll(ctx context.Context) (string, error) {
	task := NewIngestAllTask(s.inline.orchestrator)
	if err := s.publish(ctx, task.GetID(), TaskTypeIngestAll, 0); err != nil {
		slog.Warn("Job publish failed, falling back to inline execution", "type", string(TaskTypeIngestAll), "error", err)
		return task.GetID(), s.inline.dispatch(ctx, task)
	}
	return task.GetID(), nil
}

func (s *KafkaSubmitter) publish(ctx context.Context, jobID string, taskType TaskType, id int64) error {
	payload, err := json.Marshal(jobEnvelope{JobID: jobID, Type: taskType, ID: id})
	if err != nil {
		return fmt.Errorf("failed to encode job envelope: %w", err)
	}

	if err := s.writer.WriteMessages(ctx, kafka.Message{Key: []byte(jobID), Value: payload}); err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	return nil
}
