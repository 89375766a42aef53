package handlers

import (
	"time"

	"github.com/amirhosseinghanipour/scaffold/internal/application/usage"
	"github.com/amirhosseinghanipour/scaffold/internal/domain"
)

// MessageResponse is the wire shape of a message. Fragment is present only on
// RESULT assistant messages that produced files.
type MessageResponse struct {
	ID              string            `json:"id"`
	ProjectID       string            `json:"projectId"`
	Role            string            `json:"role"`
	Type            string            `json:"type"`
	Content         string            `json:"content"`
	SourceMessageID string            `json:"sourceMessageId,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
	Fragment        *FragmentResponse `json:"fragment,omitempty"`
}

type FragmentResponse struct {
	ID         string            `json:"id"`
	MessageID  string            `json:"messageId"`
	Title      string            `json:"title"`
	Files      map[string]string `json:"files"`
	SandboxURL string            `json:"sandboxUrl,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

type ProjectResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type UsageResponse struct {
	Remaining int64     `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}

func toMessageResponse(m *domain.Message) MessageResponse {
	out := MessageResponse{
		ID:        m.ID.String(),
		ProjectID: m.ProjectID.String(),
		Role:      string(m.Role),
		Type:      string(m.Type),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.SourceMessageID != nil {
		out.SourceMessageID = m.SourceMessageID.String()
	}
	if f := m.Fragment; f != nil {
		files := f.Files
		if files == nil {
			files = map[string]string{}
		}
		out.Fragment = &FragmentResponse{
			ID:         f.ID.String(),
			MessageID:  m.ID.String(),
			Title:      f.Title,
			Files:      files,
			SandboxURL: f.SandboxURL,
			CreatedAt:  f.CreatedAt,
		}
	}
	return out
}

func toProjectResponse(p *domain.Project) ProjectResponse {
	return ProjectResponse{ID: p.ID.String(), Name: p.Name, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt}
}

func toUsageResponse(s *usage.Status) UsageResponse {
	return UsageResponse{Remaining: s.Remaining, ResetAt: s.ResetAt}
}
