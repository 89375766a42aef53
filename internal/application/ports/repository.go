package ports

import (
	"context"
	"time"

	"github.com/amirhosseinghanipour/scaffold/internal/domain"
)

// ProjectRepository defines persistence for projects.
type ProjectRepository interface {
	// GetByIDForOwner returns nil, nil when the project is missing or owned by someone else.
	GetByIDForOwner(ctx context.Context, projectID domain.ProjectID, ownerID domain.UserID) (*domain.Project, error)
	ListByOwner(ctx context.Context, ownerID domain.UserID) ([]*domain.Project, error)
	// CreateWithMessage stores a new project and its first user message atomically.
	CreateWithMessage(ctx context.Context, project *domain.Project, first *domain.Message) error
}

// MessageRepository is the append-only message store.
type MessageRepository interface {
	// Append stores a user message and bumps the project's updated_at.
	Append(ctx context.Context, msg *domain.Message) error
	// ListWithFragments returns the project's messages ordered by updated_at
	// ascending (insertion order on ties), each with its fragment if any.
	ListWithFragments(ctx context.Context, projectID domain.ProjectID) ([]*domain.Message, error)
	GetByID(ctx context.Context, messageID domain.MessageID) (*domain.Message, error)
	// ListUnanswered returns user messages created before olderThan that have no
	// assistant reply yet.
	ListUnanswered(ctx context.Context, olderThan time.Time, limit int) ([]*domain.Message, error)
}

// GenerationStore persists terminal generation outcomes.
type GenerationStore interface {
	// FindReply returns the assistant message produced for a job, or nil.
	FindReply(ctx context.Context, jobID domain.MessageID) (*domain.Message, error)
	// SaveResult writes reply (and fragment when non-nil) in one transaction.
	// If a reply for reply.SourceMessageID already exists nothing is written
	// and created is false.
	SaveResult(ctx context.Context, reply *domain.Message, fragment *domain.Fragment) (created bool, err error)
}

// CreditLedger is the per-user consumable balance. Every method is atomic per
// user; implementations must serialize concurrent calls for the same user.
type CreditLedger interface {
	Consume(ctx context.Context, userID domain.UserID, plan domain.Plan, cost int64) (domain.CreditBalance, error)
	Peek(ctx context.Context, userID domain.UserID, plan domain.Plan) (domain.CreditBalance, error)
	Credit(ctx context.Context, userID domain.UserID, plan domain.Plan, amount int64) (domain.CreditBalance, error)
}
