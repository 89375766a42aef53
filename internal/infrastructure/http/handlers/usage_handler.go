package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/scaffold/internal/application/usage"
	"github.com/amirhosseinghanipour/scaffold/internal/domain"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/http/middleware"
)

// UsageHandler serves the caller's credit status.
type UsageHandler struct {
	getStatus *usage.GetStatus
	log       zerolog.Logger
}

func NewUsageHandler(getStatus *usage.GetStatus, log zerolog.Logger) *UsageHandler {
	return &UsageHandler{getStatus: getStatus, log: log}
}

// Get handles GET /usage. Returns { "remaining", "resetAt" }.
func (h *UsageHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, plan := middleware.AuthFromContext(r.Context())
	if userID == "" {
		writeErr(w, http.StatusUnauthorized, "", "unauthorized")
		return
	}
	status, err := h.getStatus.Execute(r.Context(), userID, plan)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID.String()).Msg("usage status failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toUsageResponse(status))
}

// AdminHandler handles /admin/*. Requires X-Scaffold-Admin-Secret.
type AdminHandler struct {
	grantCredits *usage.GrantCredits
	validate     *validator.Validate
	log          zerolog.Logger
}

func NewAdminHandler(grantCredits *usage.GrantCredits, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{grantCredits: grantCredits, validate: validator.New(), log: log}
}

// GrantCredits handles POST /admin/users/{userID}/credits.
// Body: { "amount": 3, "plan": "free" }. Returns the new usage status.
func (h *AdminHandler) GrantCredits(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		writeErr(w, http.StatusBadRequest, "", "user id required")
		return
	}
	var body struct {
		Amount int64  `json:"amount" validate:"required,gt=0"`
		Plan   string `json:"plan" validate:"omitempty,oneof=free pro"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	status, err := h.grantCredits.Execute(r.Context(), usage.GrantCreditsInput{
		UserID: domain.UserID(userID),
		Plan:   domain.ParsePlan(body.Plan),
		Amount: body.Amount,
	})
	if err != nil {
		if errors.Is(err, usage.ErrInvalidAmount) {
			writeErr(w, http.StatusBadRequest, "", err.Error())
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("grant credits failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	h.log.Info().Str("user_id", userID).Int64("amount", body.Amount).Msg("credits granted")
	writeJSON(w, http.StatusOK, toUsageResponse(status))
}
