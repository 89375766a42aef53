package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/scaffold/internal/application/admission"
	"github.com/amirhosseinghanipour/scaffold/internal/application/message"
	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
	"github.com/amirhosseinghanipour/scaffold/internal/domain"
	domerrors "github.com/amirhosseinghanipour/scaffold/internal/domain/errors"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/http/middleware"
)

// promptBody is the body of every generation request.
type promptBody struct {
	Value string `json:"value" validate:"required"`
}

// MessagesHandler handles /projects/{projectID}/messages. Requires JWT auth.
type MessagesHandler struct {
	admission    *admission.Controller
	listMessages *message.ListMessages
	emitter      ports.WebhookEmitter
	validate     *validator.Validate
	log          zerolog.Logger
}

func NewMessagesHandler(ctrl *admission.Controller, listMessages *message.ListMessages, emitter ports.WebhookEmitter, log zerolog.Logger) *MessagesHandler {
	return &MessagesHandler{
		admission:    ctrl,
		listMessages: listMessages,
		emitter:      emitter,
		validate:     validator.New(),
		log:          log,
	}
}

// Create handles POST /projects/{projectID}/messages. Body: { "value": "..." }.
// Returns 201 with the stored user message; generation continues in the background.
func (h *MessagesHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, plan := middleware.AuthFromContext(r.Context())
	if userID == "" {
		writeErr(w, http.StatusUnauthorized, "", "unauthorized")
		return
	}
	projectID, err := domain.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		writeErr(w, http.StatusNotFound, "", domerrors.ErrProjectNotFound.Error())
		return
	}
	body, ok := decodePrompt(w, r, h.validate)
	if !ok {
		return
	}

	msg, err := h.admission.Admit(r.Context(), admission.AdmitInput{
		UserID:    userID,
		Plan:      plan,
		ProjectID: projectID,
		Value:     body.Value,
	})
	middleware.RecordAdmission(admissionOutcome(err), string(plan))
	audit := admissionAudit{event: "message.admitted", projectID: projectID.String(), userID: userID.String(), success: err == nil}
	if err != nil {
		audit.event = "message.rejected"
		audit.err = err.Error()
		AuditEmit(h.log, r, h.emitter, audit)
		h.writeAdmissionErr(w, err)
		return
	}
	audit.messageID = msg.ID.String()
	AuditEmit(h.log, r, h.emitter, audit)
	writeJSON(w, http.StatusCreated, toMessageResponse(msg))
}

// List handles GET /projects/{projectID}/messages. Returns { "messages": [...] }
// ordered by updatedAt ascending.
func (h *MessagesHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.AuthFromContext(r.Context())
	if userID == "" {
		writeErr(w, http.StatusUnauthorized, "", "unauthorized")
		return
	}
	projectID, err := domain.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		writeErr(w, http.StatusNotFound, "", domerrors.ErrProjectNotFound.Error())
		return
	}
	msgs, err := h.listMessages.Execute(r.Context(), message.ListMessagesInput{UserID: userID, ProjectID: projectID})
	if err != nil {
		if errors.Is(err, domerrors.ErrProjectNotFound) {
			writeErr(w, http.StatusNotFound, "", err.Error())
			return
		}
		h.log.Error().Err(err).Str("project_id", projectID.String()).Msg("list messages failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": out})
}

func (h *MessagesHandler) writeAdmissionErr(w http.ResponseWriter, err error) {
	status, code, known := domainErrStatus(err)
	if !known || errors.Is(err, domerrors.ErrAdmissionFailed) {
		h.log.Error().Err(err).Msg("admission failed")
	}
	writeErr(w, status, code, publicMessage(err))
}

func decodePrompt(w http.ResponseWriter, r *http.Request, validate *validator.Validate) (promptBody, bool) {
	var body promptBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return body, false
	}
	if err := validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "value is required")
		return body, false
	}
	return body, true
}

func admissionOutcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, domerrors.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, domerrors.ErrProjectNotFound):
		return "not_found"
	case errors.Is(err, domerrors.ErrInvalidPrompt):
		return "invalid"
	default:
		return "failed"
	}
}
