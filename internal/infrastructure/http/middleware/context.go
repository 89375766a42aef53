package middleware

import (
	"context"

	"github.com/amirhosseinghanipour/scaffold/internal/domain"
)

type contextKey string

const identityContextKey contextKey = "identity"

type identity struct {
	userID domain.UserID
	plan   domain.Plan
}

// WithAuth injects the verified caller into the context.
func WithAuth(ctx context.Context, userID domain.UserID, plan domain.Plan) context.Context {
	return context.WithValue(ctx, identityContextKey, identity{userID: userID, plan: plan})
}

// AuthFromContext returns the caller set by AuthValidator; userID is empty
// when the request was not authenticated.
func AuthFromContext(ctx context.Context) (domain.UserID, domain.Plan) {
	id, _ := ctx.Value(identityContextKey).(identity)
	if id.userID == "" {
		return "", domain.PlanFree
	}
	return id.userID, id.plan
}
