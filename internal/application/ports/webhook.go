package ports

import "context"

// AuditEvent is a pipeline event for logging or webhooks.
type AuditEvent struct {
	Event     string `json:"event"` // message.admitted, message.rejected, generation.completed, generation.failed
	ProjectID string `json:"project_id"`
	UserID    string `json:"user_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	IP        string `json:"ip,omitempty"`
	Success   bool   `json:"success"`
	Err       string `json:"error,omitempty"`
}

// WebhookEmitter sends events to an external endpoint.
type WebhookEmitter interface {
	Emit(ctx context.Context, event AuditEvent) error
}
