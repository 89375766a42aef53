package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessageID is a value object for message identity. A user message id doubles
// as the generation job key.
type MessageID struct{ uuid.UUID }

// NewMessageID creates a new MessageID from uuid.
func NewMessageID(id uuid.UUID) MessageID { return MessageID{UUID: id} }

// ParseMessageID parses the canonical string form.
func ParseMessageID(s string) (MessageID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return MessageID{}, err
	}
	return MessageID{UUID: id}, nil
}

// String returns the canonical string form.
func (m MessageID) String() string { return m.UUID.String() }

type MessageRole string

const (
	RoleUser      MessageRole = "USER"
	RoleAssistant MessageRole = "ASSISTANT"
)

type MessageType string

const (
	TypeResult MessageType = "RESULT"
	TypeError  MessageType = "ERROR"
)

// Message is an append-only conversation turn.
type Message struct {
	ID        MessageID
	ProjectID ProjectID
	Role      MessageRole
	Type      MessageType
	Content   string
	// SourceMessageID links an assistant reply to the user message (job key)
	// that produced it. Unique across assistant messages.
	SourceMessageID *MessageID
	CreatedAt       time.Time
	UpdatedAt       time.Time
	// Fragment is populated by list queries only.
	Fragment *Fragment
}

// IsWorkerError reports whether the message is a failed generation outcome.
func (m *Message) IsWorkerError() bool {
	return m.Role == RoleAssistant && m.Type == TypeError
}

// NewUserMessage builds a USER/RESULT message for prompt.
func NewUserMessage(projectID ProjectID, prompt string, now time.Time) *Message {
	return &Message{
		ID:        NewMessageID(uuid.New()),
		ProjectID: projectID,
		Role:      RoleUser,
		Type:      TypeResult,
		Content:   prompt,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
