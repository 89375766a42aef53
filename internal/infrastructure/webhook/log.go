package webhook

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
)

// LogEmitter writes events to the log when WEBHOOK_URL is not set.
type LogEmitter struct {
	log zerolog.Logger
}

func NewLogEmitter(log zerolog.Logger) *LogEmitter {
	return &LogEmitter{log: log}
}

// Emit implements ports.WebhookEmitter.
func (e *LogEmitter) Emit(ctx context.Context, event ports.AuditEvent) error {
	e.log.Info().
		Str("event", event.Event).
		Str("project_id", event.ProjectID).
		Str("message_id", event.MessageID).
		Bool("success", event.Success).
		Msg("pipeline event")
	return nil
}

var _ ports.WebhookEmitter = (*LogEmitter)(nil)
