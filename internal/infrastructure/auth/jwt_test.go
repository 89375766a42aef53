package auth

import (
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	key, pemBytes, err := GenerateDevKey()
	require.NoError(t, err)
	loaded, err := LoadRSAPrivateKeyFromPEM(pemBytes)
	require.NoError(t, err)
	assert.True(t, key.Equal(loaded))

	issuer := NewTokenIssuer(key, "scaffold", "scaffold-api")
	tok, err := issuer.IssueAccessToken("user_42", "pro", 60)
	require.NoError(t, err)

	id, err := issuer.ValidateAccessToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user_42", id.UserID)
	assert.Equal(t, "pro", id.Plan)
}

func TestTokenVerifier_PublicKeyOnly(t *testing.T) {
	key, _, err := GenerateDevKey()
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pub, err := LoadRSAPublicKeyFromPEM(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
	require.NoError(t, err)

	tok, err := NewTokenIssuer(key, "idp", "").IssueAccessToken("user_1", "", 60)
	require.NoError(t, err)

	verifier := NewTokenVerifier(pub, "idp", "")
	id, err := verifier.ValidateAccessToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user_1", id.UserID)
	assert.Empty(t, id.Plan)

	_, err = verifier.IssueAccessToken("user_1", "free", 60)
	assert.ErrorIs(t, err, ErrSigningDisabled)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	key, _, err := GenerateDevKey()
	require.NoError(t, err)
	other, _, err := GenerateDevKey()
	require.NoError(t, err)

	issuer := NewTokenIssuer(key, "scaffold", "scaffold-api")

	expired, err := issuer.IssueAccessToken("user_1", "free", -60)
	require.NoError(t, err)
	_, err = issuer.ValidateAccessToken(expired)
	assert.Error(t, err, "expired")

	foreign, err := NewTokenIssuer(other, "scaffold", "scaffold-api").IssueAccessToken("user_1", "free", 60)
	require.NoError(t, err)
	_, err = issuer.ValidateAccessToken(foreign)
	assert.Error(t, err, "wrong key")

	wrongAud, err := NewTokenIssuer(key, "scaffold", "other").IssueAccessToken("user_1", "free", 60)
	require.NoError(t, err)
	_, err = issuer.ValidateAccessToken(wrongAud)
	assert.Error(t, err, "wrong audience")

	_, err = issuer.ValidateAccessToken("not-a-jwt")
	assert.Error(t, err)
}
