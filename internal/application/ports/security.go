package ports

import "context"

// Identity is the caller resolved from an access token.
type Identity struct {
	UserID string
	Plan   string
}

// TokenIssuer signs and validates access tokens (RS256). Servers only need
// ValidateAccessToken; issuing is for development tooling.
type TokenIssuer interface {
	IssueAccessToken(userID, plan string, expiresInSeconds int64) (string, error)
	ValidateAccessToken(tokenString string) (Identity, error)
}

// SecretVerifier checks a presented shared secret against the configured one.
type SecretVerifier interface {
	Verify(presented string) bool
}

// AttemptLockout tracks failed attempts per key (client IP for the admin API)
// and locks the key out after too many.
type AttemptLockout interface {
	IsLocked(ctx context.Context, key string) (locked bool, retryAfterSeconds int)
	RecordFailure(ctx context.Context, key string)
	RecordSuccess(ctx context.Context, key string)
}
