package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
)

// Worker runs the asynq server that delivers generation jobs to handler.
type Worker struct {
	srv     *asynq.Server
	mux     *asynq.ServeMux
	handler ports.JobHandler
	log     zerolog.Logger
}

// NewWorker creates an Asynq server and registers handlers. Call Run() to start.
func NewWorker(redisOpt asynq.RedisConnOpt, concurrency int, queue string, handler ports.JobHandler, log zerolog.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 2
	}
	if queue == "" {
		queue = "default"
	}
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
		LogLevel:    asynq.WarnLevel,
	})
	mux := asynq.NewServeMux()
	w := &Worker{srv: srv, mux: mux, handler: handler, log: log}
	mux.HandleFunc(TypeCodeAgentRun, w.handleCodeAgentRun)
	return w
}

func (w *Worker) handleCodeAgentRun(ctx context.Context, t *asynq.Task) error {
	job, err := decodeJob(t.Payload())
	if err != nil {
		w.log.Error().Err(err).Msg("code agent task payload invalid")
		jobsProcessed.WithLabelValues("asynq", "failed").Inc()
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	start := time.Now()
	err = w.handler(ctx, job)
	jobDuration.WithLabelValues("asynq").Observe(time.Since(start).Seconds())
	if err != nil {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		outcome := "retry"
		if retried >= maxRetry {
			outcome = "failed"
		}
		jobsProcessed.WithLabelValues("asynq", outcome).Inc()
		w.log.Warn().Err(err).Str("job_id", job.JobID.String()).Int("retried", retried).Msg("code agent run failed")
		return err
	}
	jobsProcessed.WithLabelValues("asynq", "ok").Inc()
	return nil
}

// Start begins processing in the background. Use Shutdown for graceful stop.
func (w *Worker) Start() error {
	return w.srv.Start(w.mux)
}

// Shutdown stops the worker, waiting for in-flight jobs.
func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}
