package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
)

// Argon2Params configurable for hashing.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params returns OWASP-recommended defaults for Argon2id.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024, // 64 MiB
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

const argon2Prefix = "$argon2id$"

// HashSecret encodes secret as $argon2id$v=..$m=..,t=..,p=..$salt$hash.
func HashSecret(secret string, params Argon2Params) (string, error) {
	if secret == "" {
		return "", errors.New("empty secret")
	}
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(secret), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix, argon2.Version, params.Memory, params.Iterations, params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// SharedSecret verifies presented secrets against the configured value, which
// is either plain text or an argon2id encoding from HashSecret.
type SharedSecret struct {
	plain  []byte
	params *Argon2Params
	salt   []byte
	hash   []byte
}

// NewSharedSecret parses configured. An empty value rejects everything.
func NewSharedSecret(configured string) (*SharedSecret, error) {
	if !strings.HasPrefix(configured, argon2Prefix) {
		return &SharedSecret{plain: []byte(configured)}, nil
	}
	params, salt, hash, err := decodeHash(configured)
	if err != nil {
		return nil, err
	}
	return &SharedSecret{params: params, salt: salt, hash: hash}, nil
}

// Configured reports whether any secret was set.
func (s *SharedSecret) Configured() bool {
	return len(s.plain) > 0 || len(s.hash) > 0
}

func (s *SharedSecret) Verify(presented string) bool {
	if presented == "" || !s.Configured() {
		return false
	}
	if s.params == nil {
		return subtle.ConstantTimeCompare([]byte(presented), s.plain) == 1
	}
	got := argon2.IDKey([]byte(presented), s.salt, s.params.Iterations, s.params.Memory, s.params.Parallelism, uint32(len(s.hash)))
	return subtle.ConstantTimeCompare(s.hash, got) == 1
}

func decodeHash(encoded string) (params *Argon2Params, salt, hash []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return nil, nil, nil, errors.New("invalid argon2 hash format")
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, nil, errors.New("unsupported argon2 version")
	}
	params = &Argon2Params{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return nil, nil, nil, fmt.Errorf("argon2 parameters: %w", err)
	}
	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, err
	}
	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, nil, err
	}
	if len(hash) == 0 {
		return nil, nil, nil, errors.New("empty argon2 hash")
	}
	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(hash))
	return params, salt, hash, nil
}

var _ ports.SecretVerifier = (*SharedSecret)(nil)
