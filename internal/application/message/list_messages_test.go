package message

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhosseinghanipour/scaffold/internal/domain"
	domerrors "github.com/amirhosseinghanipour/scaffold/internal/domain/errors"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/persistence/memory"
)

func TestListMessages(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	p := domain.NewProject("user_1", time.Now())
	store.AddProject(p)
	require.NoError(t, store.Append(ctx, domain.NewUserMessage(p.ID, "one", time.Now())))
	require.NoError(t, store.Append(ctx, domain.NewUserMessage(p.ID, "two", time.Now().Add(time.Second))))

	uc := NewListMessages(store, store)
	msgs, err := uc.Execute(ctx, ListMessagesInput{UserID: "user_1", ProjectID: p.ID})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "two", msgs[1].Content)

	_, err = uc.Execute(ctx, ListMessagesInput{UserID: "intruder", ProjectID: p.ID})
	assert.ErrorIs(t, err, domerrors.ErrProjectNotFound)
}
