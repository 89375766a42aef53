package syncclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/scaffold/internal/client/api"
	"github.com/amirhosseinghanipour/scaffold/internal/domain"
	domerrors "github.com/amirhosseinghanipour/scaffold/internal/domain/errors"
)

const (
	DefaultMaxAttempts = 60
	DefaultInterval    = 2 * time.Second
)

var (
	ErrBusy            = errors.New("syncclient: a submission is already in flight")
	ErrUnknownFragment = errors.New("syncclient: fragment not in this project")
)

// Backend is the part of the API the state machine needs.
type Backend interface {
	CreateMessage(ctx context.Context, projectID, value string) (*api.Message, error)
	ListMessages(ctx context.Context, projectID string) ([]api.Message, error)
}

type Options struct {
	MaxAttempts int           // refreshes without a reply before Stuck
	Interval    time.Duration // Watch poll period
}

// Client drives one project's conversation. Safe for concurrent use.
type Client struct {
	backend   Backend
	projectID string
	opts      Options
	log       zerolog.Logger
	nudge     chan struct{}

	mu    sync.Mutex
	state State
	// fragment ids already observed; only unseen fragments auto-activate
	seen map[string]bool
}

func New(backend Backend, projectID string, opts Options, log zerolog.Logger) *Client {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Client{
		backend:   backend,
		projectID: projectID,
		opts:      opts,
		log:       log.With().Str("project_id", projectID).Logger(),
		nudge:     make(chan struct{}, 1),
		state:     State{Phase: PhaseIdle, Tab: TabPreview},
		seen:      make(map[string]bool),
	}
}

// State returns a snapshot.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Client) snapshot() State {
	s := c.state
	s.Messages = append([]api.Message(nil), c.state.Messages...)
	if c.state.Rejection != nil {
		r := *c.state.Rejection
		s.Rejection = &r
	}
	return s
}

func (c *Client) SetInput(value string) {
	c.mu.Lock()
	c.state.Input = value
	c.mu.Unlock()
}

func (c *Client) SetTab(tab Tab) {
	c.mu.Lock()
	c.state.Tab = tab
	c.mu.Unlock()
}

// Submit sends the input buffer. Invalid input is rejected locally. On
// acceptance the buffer is cleared and the cycle waits for the worker; the
// active fragment is left alone until a reply arrives.
func (c *Client) Submit(ctx context.Context) (State, error) {
	c.mu.Lock()
	if c.state.Phase == PhaseSubmitting {
		c.mu.Unlock()
		return c.State(), ErrBusy
	}
	value, err := domain.NormalizePrompt(c.state.Input)
	if err != nil {
		c.state.Phase = PhaseRejected
		c.state.Rejection = &Rejection{Reason: ReasonValidation, Message: err.Error()}
		s := c.snapshot()
		c.mu.Unlock()
		return s, err
	}
	c.state.Phase = PhaseSubmitting
	c.state.Rejection = nil
	c.mu.Unlock()

	msg, err := c.backend.CreateMessage(ctx, c.projectID, value)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		rej := classify(err)
		c.state.Phase = PhaseRejected
		c.state.Rejection = &rej
		c.log.Debug().Err(err).Str("reason", string(rej.Reason)).Msg("submission rejected")
		return c.snapshot(), err
	}
	c.state.Input = ""
	c.begin(msg.ID)
	if !containsMessage(c.state.Messages, msg.ID) {
		c.state.Messages = append(c.state.Messages, *msg)
	}
	return c.snapshot(), nil
}

// Track starts a cycle for a user message admitted outside Submit, such as
// the first prompt of a new project.
func (c *Client) Track(messageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.begin(messageID)
}

// ResumePending picks up the newest user message if nothing answered it yet,
// so a fresh Client can wait on work submitted by another session.
func (c *Client) ResumePending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.state.Messages
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].IsAssistant() {
			return false
		}
		if msgs[i].Role == api.RoleUser {
			c.begin(msgs[i].ID)
			return true
		}
	}
	return false
}

func (c *Client) begin(messageID string) {
	c.state.Phase = PhaseAccepted
	c.state.PendingMessageID = messageID
	c.state.WorkerError = ""
	c.state.Attempts = 0
}

// classify turns an admission error into a rejection the UI can act on.
func classify(err error) Rejection {
	r := Rejection{Reason: ReasonTransient, Message: err.Error()}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		r.Message = apiErr.Message
	}
	switch {
	case errors.Is(err, domerrors.ErrQuotaExceeded):
		r.Reason, r.Redirect = ReasonQuota, RedirectBilling
	case errors.Is(err, domerrors.ErrUnauthorized):
		r.Reason, r.Redirect = ReasonAuth, RedirectSignIn
	case errors.Is(err, domerrors.ErrInvalidPrompt):
		r.Reason = ReasonValidation
	case errors.Is(err, domerrors.ErrProjectNotFound):
		r.Reason = ReasonNotFound
	}
	return r
}

// Refresh re-fetches the message list and reconciles it. A refresh that
// leaves the cycle unresolved counts towards MaxAttempts.
func (c *Client) Refresh(ctx context.Context) (State, error) {
	msgs, err := c.backend.ListMessages(ctx, c.projectID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.countAttempt()
		return c.snapshot(), fmt.Errorf("refresh messages: %w", err)
	}
	c.reconcile(msgs)
	if c.state.Phase.Pending() {
		c.state.Phase = PhaseAwaitingAgent
		c.countAttempt()
	}
	return c.snapshot(), nil
}

func (c *Client) countAttempt() {
	if !c.state.Phase.Pending() {
		return
	}
	c.state.Attempts++
	if c.state.Attempts >= c.opts.MaxAttempts {
		c.state.Phase = PhaseStuck
		c.log.Warn().Str("message_id", c.state.PendingMessageID).Int("attempts", c.state.Attempts).Msg("no reply from the worker")
	}
}

func (c *Client) reconcile(msgs []api.Message) {
	c.state.Messages = msgs

	// Newest fragment not seen before, and where the current one sits.
	newest, activeAt := -1, -1
	for i, m := range msgs {
		if m.Fragment == nil {
			continue
		}
		if !c.seen[m.Fragment.ID] {
			newest = i
		}
		if c.state.ActiveFragment != nil && m.Fragment.ID == c.state.ActiveFragment.ID {
			activeAt = i
		}
	}
	for _, m := range msgs {
		if m.Fragment != nil {
			c.seen[m.Fragment.ID] = true
		}
	}

	if c.state.Phase.Pending() || c.state.Phase == PhaseStuck {
		if reply, ok := replyTo(msgs, c.state.PendingMessageID); ok {
			c.resolve(reply)
			return
		}
	}
	if newest >= 0 && newest > activeAt {
		c.activate(msgs[newest].Fragment)
	}
}

// replyTo finds the assistant message answering the pending user message.
// Replies carry the id of the message they answer; a reply without one is
// matched by position (the newest assistant message listed after pendingID).
func replyTo(msgs []api.Message, pendingID string) (api.Message, bool) {
	if pendingID == "" {
		return api.Message{}, false
	}
	at := -1
	for i, m := range msgs {
		if m.ID == pendingID {
			at = i
		}
		if m.IsAssistant() && m.SourceMessageID == pendingID {
			return m, true
		}
	}
	if at < 0 {
		return api.Message{}, false
	}
	for i := len(msgs) - 1; i > at; i-- {
		if msgs[i].IsAssistant() && msgs[i].SourceMessageID == "" {
			return msgs[i], true
		}
	}
	return api.Message{}, false
}

func (c *Client) resolve(reply api.Message) {
	c.state.Phase = PhaseResolved
	c.state.PendingMessageID = ""
	c.state.Attempts = 0
	switch {
	case reply.Type == api.TypeError:
		c.state.WorkerError = reply.Content
	case reply.Fragment != nil:
		c.state.WorkerError = ""
		c.activate(reply.Fragment)
	default:
		c.state.WorkerError = ""
	}
}

func (c *Client) activate(f *api.Fragment) {
	c.state.ActiveFragment = f
	c.state.Tab = TabPreview
}

// SelectFragment pins a fragment from the current message list.
func (c *Client) SelectFragment(fragmentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.state.Messages {
		if m.Fragment != nil && m.Fragment.ID == fragmentID {
			c.activate(m.Fragment)
			return nil
		}
	}
	return ErrUnknownFragment
}

// Nudge asks a running Watch to refresh now (window focus, manual trigger).
func (c *Client) Nudge() {
	select {
	case c.nudge <- struct{}{}:
	default:
	}
}

// Watch refreshes on every Interval tick and on Nudge until the cycle is
// resolved or stuck, or ctx ends. Fetch errors are logged and count as
// attempts.
func (c *Client) Watch(ctx context.Context) (State, error) {
	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()
	for {
		s, err := c.Refresh(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return s, ctx.Err()
			}
			c.log.Debug().Err(err).Msg("refresh failed")
		}
		if !s.Phase.Pending() {
			return s, nil
		}
		select {
		case <-ctx.Done():
			return c.State(), ctx.Err()
		case <-ticker.C:
		case <-c.nudge:
		}
	}
}

func containsMessage(msgs []api.Message, id string) bool {
	for _, m := range msgs {
		if m.ID == id {
			return true
		}
	}
	return false
}
