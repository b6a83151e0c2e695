package tasks

import (
	"context"
)

// TaskSchedulerInterface is the in-process worker pool contract used by the
// main application and the inline work submitter.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// Submitter is the work-dispatch capability: it accepts a unit of work and
// has it executed asynchronously. Implementations must tolerate their
// backend being unavailable by degrading to synchronous execution, so a
// queue outage never silently drops work.
type Submitter interface {
	SubmitAnalysis(ctx context.Context, itemID int64) error
	SubmitIngestSource(ctx context.Context, sourceID int64) (string, error)
	SubmitIngestAll(ctx context.Context) (string, error)
}
