package api

import "time"

// Message mirrors the server's message JSON.
type Message struct {
	ID              string    `json:"id" yaml:"id"`
	ProjectID       string    `json:"projectId" yaml:"projectId"`
	Role            string    `json:"role" yaml:"role"`
	Type            string    `json:"type" yaml:"type"`
	Content         string    `json:"content" yaml:"content"`
	SourceMessageID string    `json:"sourceMessageId,omitempty" yaml:"sourceMessageId,omitempty"`
	CreatedAt       time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" yaml:"updatedAt"`
	Fragment        *Fragment `json:"fragment,omitempty" yaml:"fragment,omitempty"`
}

const (
	RoleUser      = "USER"
	RoleAssistant = "ASSISTANT"
	TypeResult    = "RESULT"
	TypeError     = "ERROR"
)

func (m Message) IsAssistant() bool { return m.Role == RoleAssistant }

type Fragment struct {
	ID         string            `json:"id" yaml:"id"`
	MessageID  string            `json:"messageId" yaml:"messageId"`
	Title      string            `json:"title" yaml:"title"`
	Files      map[string]string `json:"files" yaml:"files"`
	SandboxURL string            `json:"sandboxUrl,omitempty" yaml:"sandboxUrl,omitempty"`
	CreatedAt  time.Time         `json:"createdAt" yaml:"createdAt"`
}

type Project struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

type Usage struct {
	Remaining int64     `json:"remaining" yaml:"remaining"`
	ResetAt   time.Time `json:"resetAt" yaml:"resetAt"`
}

type Template struct {
	Emoji  string `json:"emoji" yaml:"emoji"`
	Title  string `json:"title" yaml:"title"`
	Prompt string `json:"prompt" yaml:"prompt"`
}
