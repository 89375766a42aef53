package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
	"github.com/amirhosseinghanipour/scaffold/internal/domain"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/persistence/db"
)

type ProjectRepository struct {
	q    *db.Queries
	pool *pgxpool.Pool
}

func NewProjectRepository(q *db.Queries, pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{q: q, pool: pool}
}

func (r *ProjectRepository) GetByIDForOwner(ctx context.Context, projectID domain.ProjectID, ownerID domain.UserID) (*domain.Project, error) {
	p, err := r.q.GetProjectForOwner(ctx, db.GetProjectForOwnerParams{ID: projectID.UUID, OwnerID: ownerID.String()})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return dbProjectToDomain(p), nil
}

func (r *ProjectRepository) ListByOwner(ctx context.Context, ownerID domain.UserID) ([]*domain.Project, error) {
	rows, err := r.q.ListProjectsByOwner(ctx, ownerID.String())
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Project, 0, len(rows))
	for _, p := range rows {
		out = append(out, dbProjectToDomain(p))
	}
	return out, nil
}

func (r *ProjectRepository) CreateWithMessage(ctx context.Context, project *domain.Project, first *domain.Message) error {
	return inTx(ctx, r.pool, func(q *db.Queries) error {
		if err := q.CreateProject(ctx, db.CreateProjectParams{
			ID:        project.ID.UUID,
			OwnerID:   project.OwnerID.String(),
			Name:      project.Name,
			CreatedAt: project.CreatedAt,
			UpdatedAt: project.UpdatedAt,
		}); err != nil {
			return err
		}
		return appendMessage(ctx, q, first)
	})
}

func dbProjectToDomain(p db.Project) *domain.Project {
	return &domain.Project{
		ID:        domain.NewProjectID(p.ID),
		OwnerID:   domain.UserID(p.OwnerID),
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// Ensure ProjectRepository implements ports.ProjectRepository.
var _ ports.ProjectRepository = (*ProjectRepository)(nil)
