package project

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

func TestListAndGetProjects(t *testing.T) {
	store := memory.NewStore()
	older := domain.NewProject("user_1", time.Now().Add(-time.Hour))
	newer := domain.NewProject("user_1", time.Now())
	foreign := domain.NewProject("user_2", time.Now())
	store.AddProject(older)
	store.AddProject(newer)
	store.AddProject(foreign)
	ctx := context.Background()

	list, err := NewListProjects(store).Execute(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	get := NewGetProject(store)
	p, err := get.Execute(ctx, GetProjectInput{UserID: "user_1", ProjectID: older.ID})
	require.NoError(t, err)
	assert.Equal(t, older.Name, p.Name)

	_, err = get.Execute(ctx, GetProjectInput{UserID: "user_1", ProjectID: foreign.ID})
	assert.ErrorIs(t, err, domerrors.ErrProjectNotFound)
}

func TestTemplatesArePromptable(t *testing.T) {
	for _, tmpl := range Templates {
		_, err := domain.NormalizePrompt(tmpl.Prompt)
		assert.NoError(t, err, tmpl.Title)
	}
}
