package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhosseinghanipour/scaffold/internal/domain"
	domerrors "github.com/amirhosseinghanipour/scaffold/internal/domain/errors"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/persistence/db"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/persistence/migrations"
)

// Set SCAFFOLD_TEST_DATABASE_URL to a disposable database to run these.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("SCAFFOLD_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("skipping test: SCAFFOLD_TEST_DATABASE_URL not set")
	}
	require.NoError(t, migrations.Up(url))
	pool, err := Open(context.Background(), url, 10)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestCreditLedger_ConcurrentConsume(t *testing.T) {
	pool := testPool(t)
	ledger := NewCreditLedger(db.New(pool), pool, domain.CreditPolicy{FreePoints: 3, ProPoints: 3, Window: time.Hour})
	user := domain.UserID("pg_" + uuid.NewString())

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, deny int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Consume(context.Background(), user, domain.PlanFree, 1)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else {
				assert.ErrorIs(t, err, domerrors.ErrInsufficientCredits)
				deny++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, ok)
	assert.Equal(t, 5, deny)

	bal, err := ledger.Peek(context.Background(), user, domain.PlanFree)
	require.NoError(t, err)
	assert.Zero(t, bal.Remaining)

	bal, err = ledger.Credit(context.Background(), user, domain.PlanFree, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), bal.Remaining)
}

func TestMessageRepository_SaveResultOnce(t *testing.T) {
	pool := testPool(t)
	q := db.New(pool)
	projects := NewProjectRepository(q, pool)
	messages := NewMessageRepository(q, pool)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	p := domain.NewProject(domain.UserID("pg_"+uuid.NewString()), now)
	userMsg := domain.NewUserMessage(p.ID, "make a page", now)
	require.NoError(t, projects.CreateWithMessage(ctx, p, userMsg))

	save := func() bool {
		reply := &domain.Message{
			ID:              domain.NewMessageID(uuid.New()),
			ProjectID:       p.ID,
			Role:            domain.RoleAssistant,
			Type:            domain.TypeResult,
			Content:         "done",
			SourceMessageID: &userMsg.ID,
			CreatedAt:       now.Add(time.Second),
			UpdatedAt:       now.Add(time.Second),
		}
		frag := &domain.Fragment{
			ID:        domain.NewFragmentID(uuid.New()),
			Title:     "Page",
			Files:     map[string]string{"app/page.tsx": "x"},
			CreatedAt: now.Add(time.Second),
		}
		created, err := messages.SaveResult(ctx, reply, frag)
		require.NoError(t, err)
		return created
	}
	assert.True(t, save())
	assert.False(t, save())

	list, err := messages.ListWithFragments(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, userMsg.ID, list[0].ID)
	require.NotNil(t, list[1].Fragment)
	assert.Equal(t, "x", list[1].Fragment.Files["app/page.tsx"])

	reply, err := messages.FindReply(ctx, userMsg.ID)
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, list[1].ID, reply.ID)

	owned, err := projects.GetByIDForOwner(ctx, p.ID, p.OwnerID)
	require.NoError(t, err)
	require.NotNil(t, owned)
	assert.True(t, owned.UpdatedAt.Equal(now.Add(time.Second)))

	foreign, err := projects.GetByIDForOwner(ctx, p.ID, "someone_else")
	require.NoError(t, err)
	assert.Nil(t, foreign)
}
