package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStore_LocksAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(3, time.Minute).WithClock(func() time.Time { return now })

	s.RecordFailure(ctx, "10.0.0.1")
	s.RecordFailure(ctx, "10.0.0.1")
	locked, _ := s.IsLocked(ctx, "10.0.0.1")
	assert.False(t, locked)

	s.RecordFailure(ctx, "10.0.0.1")
	locked, retry := s.IsLocked(ctx, "10.0.0.1")
	assert.True(t, locked)
	assert.Equal(t, 60, retry)

	locked, _ = s.IsLocked(ctx, "10.0.0.2")
	assert.False(t, locked)

	now = now.Add(61 * time.Second)
	locked, _ = s.IsLocked(ctx, "10.0.0.1")
	assert.False(t, locked)

	s.RecordFailure(ctx, "10.0.0.1")
	locked, _ = s.IsLocked(ctx, "10.0.0.1")
	assert.False(t, locked, "count restarts after the lock expires")
}

func TestMemoryStore_SuccessClears(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2, time.Minute)
	s.RecordFailure(ctx, "k")
	s.RecordSuccess(ctx, "k")
	s.RecordFailure(ctx, "k")
	locked, _ := s.IsLocked(ctx, "k")
	assert.False(t, locked)
}

func TestMemoryStore_Disabled(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, time.Minute)
	for i := 0; i < 10; i++ {
		s.RecordFailure(ctx, "k")
	}
	locked, _ := s.IsLocked(ctx, "k")
	assert.False(t, locked)
}
