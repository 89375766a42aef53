package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	domerrors "github.com/amirhosseinghanipour/scaffold/internal/domain/errors"
)

// MaxPromptLength bounds a single request, in characters.
const MaxPromptLength = 10000

// NormalizePrompt trims value and checks it is non-empty and within bounds.
func NormalizePrompt(value string) (string, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return "", fmt.Errorf("%w: value is required", domerrors.ErrInvalidPrompt)
	}
	if utf8.RuneCountInString(s) > MaxPromptLength {
		return "", fmt.Errorf("%w: value is too long", domerrors.ErrInvalidPrompt)
	}
	return s, nil
}
