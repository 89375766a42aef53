package generation

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
	"github.com/amirhosseinghanipour/scaffold/internal/domain"
)

// RedispatchOrphans re-enqueues user messages older than (now - olderThan)
// that never got a reply, under their original job key. Safe to call
// repeatedly: the bus dedupes by key and the worker is idempotent.
// olderThan 0 = no-op.
func RedispatchOrphans(ctx context.Context, messages ports.MessageRepository, enqueuer ports.TaskEnqueuer, olderThan time.Duration, limit int) (redispatched int, err error) {
	if olderThan <= 0 {
		return 0, nil
	}
	orphans, err := messages.ListUnanswered(ctx, time.Now().Add(-olderThan), limit)
	if err != nil {
		return 0, err
	}
	for _, m := range orphans {
		if e := enqueuer.EnqueueCodeAgentRun(ctx, domain.NewGenerationJob(m)); e != nil {
			return redispatched, e // stop on first error
		}
		redispatched++
	}
	return redispatched, nil
}

// RunRedispatchLoop calls RedispatchOrphans every interval until ctx is done.
func RunRedispatchLoop(ctx context.Context, messages ports.MessageRepository, enqueuer ports.TaskEnqueuer, interval, olderThan time.Duration, log zerolog.Logger) {
	if interval <= 0 || olderThan <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := RedispatchOrphans(ctx, messages, enqueuer, olderThan, 100)
			if err != nil {
				log.Warn().Err(err).Int("redispatched", n).Msg("redispatch sweep failed")
				continue
			}
			if n > 0 {
				log.Info().Int("redispatched", n).Msg("redispatched unanswered messages")
			}
		}
	}
}
