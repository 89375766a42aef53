package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
)

// ErrSigningDisabled is returned by IssueAccessToken on a verify-only issuer.
var ErrSigningDisabled = errors.New("auth: no private key configured")

// TokenIssuer implements ports.TokenIssuer with RS256. Sessions live with the
// identity provider; this side mostly verifies.
type TokenIssuer struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	audience   string
}

type accessClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id,omitempty"`
	Plan   string `json:"plan,omitempty"`
}

// NewTokenIssuer can both sign and verify.
func NewTokenIssuer(privateKey *rsa.PrivateKey, issuer, audience string) *TokenIssuer {
	return &TokenIssuer{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
		issuer:     issuer,
		audience:   audience,
	}
}

// NewTokenVerifier only verifies tokens signed by the identity provider.
func NewTokenVerifier(publicKey *rsa.PublicKey, issuer, audience string) *TokenIssuer {
	return &TokenIssuer{publicKey: publicKey, issuer: issuer, audience: audience}
}

func (t *TokenIssuer) IssueAccessToken(userID, plan string, expiresInSeconds int64) (string, error) {
	if t.privateKey == nil {
		return "", ErrSigningDisabled
	}
	now := time.Now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expiresInSeconds) * time.Second)),
		},
		UserID: userID,
		Plan:   plan,
	}
	if t.audience != "" {
		claims.Audience = jwt.ClaimStrings{t.audience}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(t.privateKey)
}

func (t *TokenIssuer) ValidateAccessToken(tokenString string) (ports.Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithExpirationRequired()}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	if t.audience != "" {
		opts = append(opts, jwt.WithAudience(t.audience))
	}
	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.publicKey, nil
	}, opts...)
	if err != nil {
		return ports.Identity{}, err
	}
	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return ports.Identity{}, errors.New("invalid token claims")
	}
	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return ports.Identity{}, errors.New("token has no subject")
	}
	return ports.Identity{UserID: userID, Plan: claims.Plan}, nil
}

var _ ports.TokenIssuer = (*TokenIssuer)(nil)
