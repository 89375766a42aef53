package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
	"github.com/amirhosseinghanipour/scaffold/internal/domain"
)

// AuthValidator validates the bearer JWT and sets the caller in context (see AuthFromContext).
type AuthValidator struct {
	issuer ports.TokenIssuer
	log    zerolog.Logger
}

func NewAuthValidator(issuer ports.TokenIssuer, log zerolog.Logger) *AuthValidator {
	return &AuthValidator{issuer: issuer, log: log}
}

func (m *AuthValidator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			writeErr(w, http.StatusUnauthorized, "unauthorized", "missing or invalid authorization")
			return
		}
		id, err := m.issuer.ValidateAccessToken(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			m.log.Debug().Err(err).Msg("rejected access token")
			writeErr(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}
		ctx := WithAuth(r.Context(), domain.UserID(id.UserID), domain.ParsePlan(id.Plan))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
