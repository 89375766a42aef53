package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhosseinghanipour/scaffold/internal/domain"
)

func newJob() domain.GenerationJob {
	return domain.GenerationJob{
		JobID:       domain.NewMessageID(uuid.New()),
		ProjectID:   domain.NewProjectID(uuid.New()),
		PromptValue: "make a page",
	}
}

func startLocal(t *testing.T, handler func(context.Context, domain.GenerationJob) error, opts LocalOptions) *LocalQueue {
	t.Helper()
	q, err := NewLocalQueue(handler, opts, zerolog.Nop())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = q.Close(time.Second)
	})
	return q
}

func TestLocalQueue_DeliversOncePerKey(t *testing.T) {
	var (
		mu    sync.Mutex
		calls = map[domain.MessageID]int{}
		wg    sync.WaitGroup
	)
	wg.Add(2)
	q := startLocal(t, func(ctx context.Context, job domain.GenerationJob) error {
		mu.Lock()
		calls[job.JobID]++
		mu.Unlock()
		wg.Done()
		return nil
	}, LocalOptions{Workers: 2})

	a, b := newJob(), newJob()
	require.NoError(t, q.EnqueueCodeAgentRun(context.Background(), a))
	require.NoError(t, q.EnqueueCodeAgentRun(context.Background(), a))
	require.NoError(t, q.EnqueueCodeAgentRun(context.Background(), b))
	wg.Wait()
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls[a.JobID])
	assert.Equal(t, 1, calls[b.JobID])
}

func TestLocalQueue_RetriesThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	done := make(chan struct{})
	q := startLocal(t, func(ctx context.Context, job domain.GenerationJob) error {
		if attempts.Add(1) < 3 {
			return errors.New("db unavailable")
		}
		close(done)
		return nil
	}, LocalOptions{MaxRetry: 5, Backoff: time.Millisecond})

	require.NoError(t, q.EnqueueCodeAgentRun(context.Background(), newJob()))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
	assert.Equal(t, int32(3), attempts.Load())
}

func TestLocalQueue_GivingUpReleasesKey(t *testing.T) {
	var attempts atomic.Int32
	gaveUp := make(chan struct{}, 2)
	q := startLocal(t, func(ctx context.Context, job domain.GenerationJob) error {
		if attempts.Add(1)%2 == 0 {
			gaveUp <- struct{}{}
		}
		return errors.New("always fails")
	}, LocalOptions{MaxRetry: 1, Backoff: time.Millisecond})

	job := newJob()
	require.NoError(t, q.EnqueueCodeAgentRun(context.Background(), job))
	<-gaveUp
	require.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		_, ok := q.seen[job.JobID]
		return !ok
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, q.EnqueueCodeAgentRun(context.Background(), job))
	select {
	case <-gaveUp:
	case <-time.After(2 * time.Second):
		t.Fatal("re-enqueued job was not delivered")
	}
	assert.Equal(t, int32(4), attempts.Load())
}

func TestLocalQueue_ClosedRejects(t *testing.T) {
	q, err := NewLocalQueue(func(context.Context, domain.GenerationJob) error { return nil }, LocalOptions{}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, q.Close(time.Second))
	assert.ErrorIs(t, q.EnqueueCodeAgentRun(context.Background(), newJob()), ErrQueueClosed)
}

func TestLocalQueue_Check(t *testing.T) {
	q, err := NewLocalQueue(func(context.Context, domain.GenerationJob) error { return nil }, LocalOptions{Buffer: 1}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "local", q.Mode())
	assert.NoError(t, q.Check(context.Background()))

	require.NoError(t, q.EnqueueCodeAgentRun(context.Background(), newJob()))
	assert.ErrorIs(t, q.Check(context.Background()), ErrBacklogFull)

	require.NoError(t, q.Close(time.Second))
	assert.ErrorIs(t, q.Check(context.Background()), ErrQueueClosed)
}

func TestDecodeJob_RejectsBadIDs(t *testing.T) {
	_, err := decodeJob([]byte(`{"value":"x","projectId":"nope","messageId":"` + uuid.NewString() + `"}`))
	assert.Error(t, err)
	_, err = decodeJob([]byte(`{"value":"x"}`))
	assert.Error(t, err)

	job := newJob()
	data, err := encodeJob(job)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"make a page","projectId":"`+job.ProjectID.String()+`","messageId":"`+job.JobID.String()+`"}`, string(data))
}
