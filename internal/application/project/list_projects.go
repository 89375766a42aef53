package project

import (
	"context"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
	"github.com/amirhosseinghanipour/scaffold/internal/domain"
	domerrors "github.com/amirhosseinghanipour/scaffold/internal/domain/errors"
)

// ListProjects returns the caller's projects, most recently active first.
type ListProjects struct {
	projectRepo ports.ProjectRepository
}

// NewListProjects builds the use case.
func NewListProjects(projectRepo ports.ProjectRepository) *ListProjects {
	return &ListProjects{projectRepo: projectRepo}
}

// Execute lists projects owned by userID.
func (uc *ListProjects) Execute(ctx context.Context, userID domain.UserID) ([]*domain.Project, error) {
	return uc.projectRepo.ListByOwner(ctx, userID)
}

// GetProjectInput identifies a project and its would-be owner.
type GetProjectInput struct {
	UserID    domain.UserID
	ProjectID domain.ProjectID
}

// GetProject loads a single owned project.
type GetProject struct {
	projectRepo ports.ProjectRepository
}

// NewGetProject builds the use case.
func NewGetProject(projectRepo ports.ProjectRepository) *GetProject {
	return &GetProject{projectRepo: projectRepo}
}

// Execute returns ErrProjectNotFound for missing and foreign projects alike.
func (uc *GetProject) Execute(ctx context.Context, input GetProjectInput) (*domain.Project, error) {
	p, err := uc.projectRepo.GetByIDForOwner(ctx, input.ProjectID, input.UserID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domerrors.ErrProjectNotFound
	}
	return p, nil
}
