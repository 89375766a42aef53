package queue

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
	"github.com/amirhosseinghanipour/scaffold/internal/domain"
)

// AsynqOptions tune how generation tasks are enqueued.
type AsynqOptions struct {
	Queue     string
	MaxRetry  int
	Timeout   time.Duration
	Retention time.Duration // how long a finished task id keeps deduplicating
}

// TaskEnqueuer puts generation jobs on Redis via asynq. The task id is the
// job key, so a second enqueue of the same message is a no-op.
type TaskEnqueuer struct {
	client *asynq.Client
	opts   AsynqOptions
	log    zerolog.Logger
}

func NewAsynqEnqueuer(redisOpt asynq.RedisConnOpt, opts AsynqOptions, log zerolog.Logger) *TaskEnqueuer {
	if opts.Queue == "" {
		opts.Queue = "default"
	}
	return &TaskEnqueuer{client: asynq.NewClient(redisOpt), opts: opts, log: log}
}

func (q *TaskEnqueuer) Mode() string { return "asynq" }

// Check always passes; Redis reachability is its own health check.
func (q *TaskEnqueuer) Check(ctx context.Context) error { return nil }

func (q *TaskEnqueuer) Close() error {
	return q.client.Close()
}

func (q *TaskEnqueuer) EnqueueCodeAgentRun(ctx context.Context, job domain.GenerationJob) error {
	payload, err := encodeJob(job)
	if err != nil {
		return err
	}
	opts := []asynq.Option{
		asynq.TaskID(job.JobID.String()),
		asynq.Queue(q.opts.Queue),
		asynq.MaxRetry(q.opts.MaxRetry),
	}
	if q.opts.Timeout > 0 {
		opts = append(opts, asynq.Timeout(q.opts.Timeout))
	}
	if q.opts.Retention > 0 {
		opts = append(opts, asynq.Retention(q.opts.Retention))
	}
	info, err := q.client.EnqueueContext(ctx, asynq.NewTask(TypeCodeAgentRun, payload), opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		jobsEnqueued.WithLabelValues("asynq", "duplicate").Inc()
		q.log.Debug().Str("job_id", job.JobID.String()).Msg("job already on the bus")
		return nil
	}
	if err != nil {
		jobsEnqueued.WithLabelValues("asynq", "error").Inc()
		q.log.Warn().Err(err).Str("job_id", job.JobID.String()).Msg("enqueue code agent run failed")
		return err
	}
	jobsEnqueued.WithLabelValues("asynq", "accepted").Inc()
	q.log.Debug().Str("job_id", job.JobID.String()).Str("queue", info.Queue).Msg("code agent run enqueued")
	return nil
}

var _ ports.TaskEnqueuer = (*TaskEnqueuer)(nil)
