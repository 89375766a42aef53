package ports

import (
	"context"

	"github.com/amirhosseinghanipour/scaffold/internal/domain"
)

// GenerationRequest is what the code agent gets to work with.
type GenerationRequest struct {
	JobID     string           `json:"jobId"`
	ProjectID string           `json:"projectId"`
	Prompt    string           `json:"prompt"`
	History   []HistoryMessage `json:"history,omitempty"`
}

// HistoryMessage is one prior turn of the conversation.
type HistoryMessage struct {
	Role    domain.MessageRole `json:"role"`
	Content string             `json:"content"`
}

// GenerationOutput is the agent's terminal result. An empty Summary means the
// agent did not finish.
type GenerationOutput struct {
	Summary    string            `json:"summary"`
	Title      string            `json:"title"`
	Files      map[string]string `json:"files"`
	SandboxURL string            `json:"sandboxUrl,omitempty"`
}

// Generator runs the code agent. It is a black box to the pipeline.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationOutput, error)
}
