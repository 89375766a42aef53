package message

import (
	"context"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
	"github.com/amirhosseinghanipour/scaffold/internal/domain"
	domerrors "github.com/amirhosseinghanipour/scaffold/internal/domain/errors"
)

// ListMessagesInput scopes the listing to the caller.
type ListMessagesInput struct {
	UserID    domain.UserID
	ProjectID domain.ProjectID
}

// ListMessages returns a project's conversation, oldest first, with fragments.
type ListMessages struct {
	projects ports.ProjectRepository
	messages ports.MessageRepository
}

// NewListMessages builds the use case.
func NewListMessages(projects ports.ProjectRepository, messages ports.MessageRepository) *ListMessages {
	return &ListMessages{projects: projects, messages: messages}
}

// Execute fails with ErrProjectNotFound unless the caller owns the project.
func (uc *ListMessages) Execute(ctx context.Context, input ListMessagesInput) ([]*domain.Message, error) {
	project, err := uc.projects.GetByIDForOwner(ctx, input.ProjectID, input.UserID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, domerrors.ErrProjectNotFound
	}
	return uc.messages.ListWithFragments(ctx, project.ID)
}
