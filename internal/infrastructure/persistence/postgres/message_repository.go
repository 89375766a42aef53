package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
	"github.com/amirhosseinghanipour/scaffold/internal/domain"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/persistence/db"
)

// MessageRepository is the append-only message store. It also implements
// ports.GenerationStore since replies and fragments share its tables.
type MessageRepository struct {
	q    *db.Queries
	pool *pgxpool.Pool
}

func NewMessageRepository(q *db.Queries, pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{q: q, pool: pool}
}

func (r *MessageRepository) Append(ctx context.Context, msg *domain.Message) error {
	return inTx(ctx, r.pool, func(q *db.Queries) error {
		return appendMessage(ctx, q, msg)
	})
}

// appendMessage inserts a user message and bumps its project.
func appendMessage(ctx context.Context, q *db.Queries, msg *domain.Message) error {
	if err := q.CreateMessage(ctx, db.CreateMessageParams{
		ID:        msg.ID.UUID,
		ProjectID: msg.ProjectID.UUID,
		Role:      string(msg.Role),
		Type:      string(msg.Type),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
		UpdatedAt: msg.UpdatedAt,
	}); err != nil {
		return err
	}
	return q.TouchProject(ctx, db.TouchProjectParams{ID: msg.ProjectID.UUID, UpdatedAt: msg.UpdatedAt})
}

func (r *MessageRepository) ListWithFragments(ctx context.Context, projectID domain.ProjectID) ([]*domain.Message, error) {
	rows, err := r.q.ListMessagesWithFragments(ctx, projectID.UUID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Message, 0, len(rows))
	for _, row := range rows {
		m := dbMessageToDomain(db.Message{
			ID:              row.ID,
			Seq:             row.Seq,
			ProjectID:       row.ProjectID,
			Role:            row.Role,
			Type:            row.Type,
			Content:         row.Content,
			SourceMessageID: row.SourceMessageID,
			CreatedAt:       row.CreatedAt,
			UpdatedAt:       row.UpdatedAt,
		})
		if row.FragmentID.Valid {
			f := &domain.Fragment{
				ID:         domain.NewFragmentID(row.FragmentID.Bytes),
				MessageID:  m.ID,
				Title:      row.FragmentTitle.String,
				SandboxURL: row.FragmentSandboxUrl.String,
				CreatedAt:  row.FragmentCreatedAt.Time,
			}
			if err := json.Unmarshal(row.FragmentFiles, &f.Files); err != nil {
				return nil, err
			}
			m.Fragment = f
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *MessageRepository) GetByID(ctx context.Context, messageID domain.MessageID) (*domain.Message, error) {
	m, err := r.q.GetMessageByID(ctx, messageID.UUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return dbMessageToDomain(m), nil
}

func (r *MessageRepository) ListUnanswered(ctx context.Context, olderThan time.Time, limit int) ([]*domain.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.q.ListUnansweredMessages(ctx, db.ListUnansweredMessagesParams{CreatedAt: olderThan, Limit: int32(limit)})
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Message, 0, len(rows))
	for _, m := range rows {
		out = append(out, dbMessageToDomain(m))
	}
	return out, nil
}

func (r *MessageRepository) FindReply(ctx context.Context, jobID domain.MessageID) (*domain.Message, error) {
	m, err := r.q.GetReplyBySource(ctx, pgtype.UUID{Bytes: jobID.UUID, Valid: true})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return dbMessageToDomain(m), nil
}

// SaveResult inserts the reply with ON CONFLICT DO NOTHING on
// source_message_id; the fragment is only written when the insert won.
func (r *MessageRepository) SaveResult(ctx context.Context, reply *domain.Message, fragment *domain.Fragment) (bool, error) {
	var source pgtype.UUID
	if reply.SourceMessageID != nil {
		source = pgtype.UUID{Bytes: reply.SourceMessageID.UUID, Valid: true}
	}
	created := false
	err := inTx(ctx, r.pool, func(q *db.Queries) error {
		_, err := q.CreateReply(ctx, db.CreateReplyParams{
			ID:              reply.ID.UUID,
			ProjectID:       reply.ProjectID.UUID,
			Role:            string(reply.Role),
			Type:            string(reply.Type),
			Content:         reply.Content,
			SourceMessageID: source,
			CreatedAt:       reply.CreatedAt,
			UpdatedAt:       reply.UpdatedAt,
		})
		if errors.Is(err, pgx.ErrNoRows) {
			return nil // another delivery got there first
		}
		if err != nil {
			return err
		}
		created = true
		if fragment != nil && reply.Type == domain.TypeResult {
			files, err := json.Marshal(fragment.Files)
			if err != nil {
				return err
			}
			if err := q.CreateFragment(ctx, db.CreateFragmentParams{
				ID:         fragment.ID.UUID,
				MessageID:  reply.ID.UUID,
				Title:      fragment.Title,
				Files:      files,
				SandboxUrl: pgtype.Text{String: fragment.SandboxURL, Valid: fragment.SandboxURL != ""},
				CreatedAt:  fragment.CreatedAt,
			}); err != nil {
				return err
			}
		}
		return q.TouchProject(ctx, db.TouchProjectParams{ID: reply.ProjectID.UUID, UpdatedAt: reply.UpdatedAt})
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func dbMessageToDomain(m db.Message) *domain.Message {
	out := &domain.Message{
		ID:        domain.NewMessageID(m.ID),
		ProjectID: domain.NewProjectID(m.ProjectID),
		Role:      domain.MessageRole(m.Role),
		Type:      domain.MessageType(m.Type),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.SourceMessageID.Valid {
		src := domain.NewMessageID(m.SourceMessageID.Bytes)
		out.SourceMessageID = &src
	}
	return out
}

var (
	_ ports.MessageRepository = (*MessageRepository)(nil)
	_ ports.GenerationStore   = (*MessageRepository)(nil)
)
