package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
	"github.com/amirhosseinghanipour/scaffold/internal/domain"
)

// Store keeps projects, messages and fragments in process memory. It is meant
// for single-instance development and tests; data is lost on restart.
type Store struct {
	mu        sync.RWMutex
	projects  map[domain.ProjectID]*domain.Project
	messages  []*domain.Message // insertion order
	fragments map[domain.MessageID]*domain.Fragment
	replies   map[domain.MessageID]*domain.Message // keyed by source message id
	now       func() time.Time

	// FailAppend, when set, is returned by the next Append call.
	FailAppend error
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		projects:  make(map[domain.ProjectID]*domain.Project),
		fragments: make(map[domain.MessageID]*domain.Fragment),
		replies:   make(map[domain.MessageID]*domain.Message),
		now:       time.Now,
	}
}

// AddProject seeds a project.
func (s *Store) AddProject(p *domain.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.projects[p.ID] = &cp
}

func (s *Store) GetByIDForOwner(ctx context.Context, projectID domain.ProjectID, ownerID domain.UserID) (*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[projectID]
	if !ok || p.OwnerID != ownerID {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ListByOwner(ctx context.Context, ownerID domain.UserID) ([]*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Project
	for _, p := range s.projects {
		if p.OwnerID == ownerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *Store) CreateWithMessage(ctx context.Context, project *domain.Project, first *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	cp := *project
	s.projects[project.ID] = &cp
	s.appendLocked(first)
	return nil
}

func (s *Store) Append(ctx context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	s.appendLocked(msg)
	return nil
}

func (s *Store) takeFailure() error {
	err := s.FailAppend
	s.FailAppend = nil
	return err
}

func (s *Store) appendLocked(msg *domain.Message) {
	cp := *msg
	cp.Fragment = nil
	s.messages = append(s.messages, &cp)
	if p, ok := s.projects[msg.ProjectID]; ok && msg.UpdatedAt.After(p.UpdatedAt) {
		p.UpdatedAt = msg.UpdatedAt
	}
}

func (s *Store) ListWithFragments(ctx context.Context, projectID domain.ProjectID) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Message
	for _, m := range s.messages {
		if m.ProjectID != projectID {
			continue
		}
		cp := *m
		if f, ok := s.fragments[m.ID]; ok {
			fc := copyFragment(f)
			cp.Fragment = fc
		}
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, messageID domain.MessageID) (*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.messages {
		if m.ID == messageID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) ListUnanswered(ctx context.Context, olderThan time.Time, limit int) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Message
	for _, m := range s.messages {
		if m.Role != domain.RoleUser || !m.CreatedAt.Before(olderThan) {
			continue
		}
		if _, answered := s.replies[m.ID]; answered {
			continue
		}
		cp := *m
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) FindReply(ctx context.Context, jobID domain.MessageID) (*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.replies[jobID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *Store) SaveResult(ctx context.Context, reply *domain.Message, fragment *domain.Fragment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reply.SourceMessageID != nil {
		if _, exists := s.replies[*reply.SourceMessageID]; exists {
			return false, nil
		}
	}
	s.appendLocked(reply)
	if reply.SourceMessageID != nil {
		s.replies[*reply.SourceMessageID] = s.messages[len(s.messages)-1]
	}
	if fragment != nil && reply.Type == domain.TypeResult {
		f := copyFragment(fragment)
		if f.ID.UUID == uuid.Nil {
			f.ID = domain.NewFragmentID(uuid.New())
		}
		f.MessageID = reply.ID
		s.fragments[reply.ID] = f
	}
	return true, nil
}

// FragmentCount returns how many fragments are linked to messageID (0 or 1).
func (s *Store) FragmentCount(messageID domain.MessageID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.fragments[messageID]; ok {
		return 1
	}
	return 0
}

func copyFragment(f *domain.Fragment) *domain.Fragment {
	cp := *f
	cp.Files = make(map[string]string, len(f.Files))
	for k, v := range f.Files {
		cp.Files[k] = v
	}
	return &cp
}

var (
	_ ports.ProjectRepository = (*Store)(nil)
	_ ports.MessageRepository = (*Store)(nil)
	_ ports.GenerationStore   = (*Store)(nil)
)
