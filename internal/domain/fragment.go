package domain

import (
	"time"

	"github.com/google/uuid"
)

// FragmentID is a value object for fragment identity.
type FragmentID struct{ uuid.UUID }

// NewFragmentID creates a new FragmentID from uuid.
func NewFragmentID(id uuid.UUID) FragmentID { return FragmentID{UUID: id} }

// String returns the canonical string form.
func (f FragmentID) String() string { return f.UUID.String() }

// Fragment is the full snapshot of generated files for one assistant message.
// Files maps POSIX relative paths to UTF-8 text; it is never a diff.
type Fragment struct {
	ID         FragmentID
	MessageID  MessageID
	Title      string
	Files      map[string]string
	SandboxURL string
	CreatedAt  time.Time
}
