package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
)

// admissionAudit is one admission decision as seen by the HTTP layer.
type admissionAudit struct {
	event     string // message.admitted or message.rejected
	projectID string
	userID    string
	messageID string
	success   bool
	err       string
}

// AuditLog logs an admission decision with request context.
func AuditLog(log zerolog.Logger, r *http.Request, a admissionAudit) {
	ev := log.Info()
	if !a.success {
		ev = log.Warn()
	}
	ev.
		Str("event", a.event).
		Str("project_id", a.projectID).
		Str("user_id", a.userID).
		Str("message_id", a.messageID).
		Str("ip", getClientIP(r)).
		Str("request_id", middleware.GetReqID(r.Context())).
		Bool("success", a.success)
	if a.err != "" {
		ev.Str("error", a.err)
	}
	ev.Msg("admission_audit")
}

// AuditEmit logs the event and, if emitter is non-nil, sends it to the webhook
// endpoint without holding up the response.
func AuditEmit(log zerolog.Logger, r *http.Request, emitter ports.WebhookEmitter, a admissionAudit) {
	AuditLog(log, r, a)
	if emitter == nil {
		return
	}
	ev := ports.AuditEvent{
		Event:     a.event,
		ProjectID: a.projectID,
		UserID:    a.userID,
		MessageID: a.messageID,
		IP:        getClientIP(r),
		Success:   a.success,
		Err:       a.err,
	}
	ctx := context.WithoutCancel(r.Context())
	go func() {
		if err := emitter.Emit(ctx, ev); err != nil {
			log.Debug().Err(err).Str("event", ev.Event).Msg("webhook emit failed")
		}
	}()
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	return r.RemoteAddr
}
