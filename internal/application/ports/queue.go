package ports

import (
	"context"

	"github.com/amirhosseinghanipour/scaffold/internal/domain"
)

// TaskEnqueuer hands generation jobs to the job bus. It returns once the bus
// has accepted the job and never waits for the worker. Enqueuing a job whose
// JobID was already accepted is not an error.
type TaskEnqueuer interface {
	EnqueueCodeAgentRun(ctx context.Context, job domain.GenerationJob) error
}

// JobHandler processes one delivery of a job. Deliveries are at-least-once.
type JobHandler func(ctx context.Context, job domain.GenerationJob) error
