package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
	"github.com/amirhosseinghanipour/scaffold/internal/domain"
)

// ErrQueueClosed is returned by EnqueueCodeAgentRun after Close.
var ErrQueueClosed = errors.New("queue: closed")

// LocalOptions configure the in-process bus.
type LocalOptions struct {
	Workers   int
	Buffer    int
	MaxRetry  int
	Backoff   time.Duration // first retry delay, doubled per attempt
	Retention time.Duration // how long an accepted key keeps deduplicating
}

// LocalQueue is the bus used when Redis is not configured: a buffered
// channel drained into an ants pool. Keys are deduplicated in memory, so it
// only holds for a single process.
type LocalQueue struct {
	handler ports.JobHandler
	opts    LocalOptions
	pool    *ants.Pool
	jobs    chan domain.GenerationJob
	log     zerolog.Logger

	mu     sync.Mutex
	seen   map[domain.MessageID]time.Time
	closed bool
}

func NewLocalQueue(handler ports.JobHandler, opts LocalOptions, log zerolog.Logger) (*LocalQueue, error) {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if opts.Retention <= 0 {
		opts.Retention = time.Hour
	}
	pool, err := ants.NewPool(opts.Workers, ants.WithPanicHandler(func(p interface{}) {
		log.Error().Interface("panic", p).Msg("code agent job panicked")
	}))
	if err != nil {
		return nil, err
	}
	return &LocalQueue{
		handler: handler,
		opts:    opts,
		pool:    pool,
		jobs:    make(chan domain.GenerationJob, opts.Buffer),
		seen:    make(map[domain.MessageID]time.Time),
		log:     log,
	}, nil
}

// EnqueueCodeAgentRun buffers the job and returns. A key accepted within the
// retention window is acknowledged without queuing it again.
func (q *LocalQueue) EnqueueCodeAgentRun(ctx context.Context, job domain.GenerationJob) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	if at, ok := q.seen[job.JobID]; ok && time.Since(at) < q.opts.Retention {
		q.mu.Unlock()
		jobsEnqueued.WithLabelValues("local", "duplicate").Inc()
		return nil
	}
	q.seen[job.JobID] = time.Now()
	q.mu.Unlock()

	select {
	case q.jobs <- job:
		jobsEnqueued.WithLabelValues("local", "accepted").Inc()
		return nil
	case <-ctx.Done():
		q.forget(job.JobID)
		jobsEnqueued.WithLabelValues("local", "error").Inc()
		return ctx.Err()
	}
}

// ErrBacklogFull is reported by Check when every buffer slot is taken.
var ErrBacklogFull = errors.New("queue: backlog full")

func (q *LocalQueue) Mode() string { return "local" }

// Check fails once the queue is closed or its buffer is full.
func (q *LocalQueue) Check(ctx context.Context) error {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return ErrQueueClosed
	}
	if len(q.jobs) == cap(q.jobs) {
		return ErrBacklogFull
	}
	return nil
}

// Run drains the buffer into the pool until ctx is done.
func (q *LocalQueue) Run(ctx context.Context) {
	prune := time.NewTicker(time.Minute)
	defer prune.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-prune.C:
			q.prune()
		case job := <-q.jobs:
			if err := q.pool.Submit(func() { q.process(ctx, job) }); err != nil {
				q.log.Error().Err(err).Str("job_id", job.JobID.String()).Msg("submit to worker pool failed")
				q.forget(job.JobID)
			}
		}
	}
}

// Close stops accepting jobs and waits up to timeout for running ones.
func (q *LocalQueue) Close(timeout time.Duration) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	return q.pool.ReleaseTimeout(timeout)
}

func (q *LocalQueue) process(ctx context.Context, job domain.GenerationJob) {
	delay := q.opts.Backoff
	for attempt := 0; ; attempt++ {
		start := time.Now()
		err := q.handler(ctx, job)
		jobDuration.WithLabelValues("local").Observe(time.Since(start).Seconds())
		if err == nil {
			jobsProcessed.WithLabelValues("local", "ok").Inc()
			return
		}
		if attempt >= q.opts.MaxRetry || ctx.Err() != nil {
			jobsProcessed.WithLabelValues("local", "failed").Inc()
			q.log.Error().Err(err).Str("job_id", job.JobID.String()).Int("attempts", attempt+1).Msg("code agent run gave up")
			// let the orphan sweep pick it up again
			q.forget(job.JobID)
			return
		}
		jobsProcessed.WithLabelValues("local", "retry").Inc()
		q.log.Warn().Err(err).Str("job_id", job.JobID.String()).Dur("backoff", delay).Msg("code agent run failed; retrying")
		select {
		case <-ctx.Done():
			q.forget(job.JobID)
			return
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func (q *LocalQueue) forget(id domain.MessageID) {
	q.mu.Lock()
	delete(q.seen, id)
	q.mu.Unlock()
}

func (q *LocalQueue) prune() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, at := range q.seen {
		if time.Since(at) >= q.opts.Retention {
			delete(q.seen, id)
		}
	}
}

var _ ports.TaskEnqueuer = (*LocalQueue)(nil)
