package memory

import (
	"context"
	"sync"
	"time"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
	"github.com/amirhosseinghanipour/scaffold/internal/domain"
)

type slot struct {
	mu    sync.Mutex
	entry *domain.CreditEntry
}

// CreditLedger is an in-memory ledger. Each user has its own lock so that
// different users never contend.
type CreditLedger struct {
	slots  sync.Map // domain.UserID -> *slot
	policy domain.CreditPolicy
	now    func() time.Time
}

// NewCreditLedger returns a ledger applying policy.
func NewCreditLedger(policy domain.CreditPolicy) *CreditLedger {
	return &CreditLedger{policy: policy, now: time.Now}
}

// WithClock replaces the time source (tests).
func (l *CreditLedger) WithClock(now func() time.Time) *CreditLedger {
	l.now = now
	return l
}

func (l *CreditLedger) slot(userID domain.UserID) *slot {
	v, _ := l.slots.LoadOrStore(userID, &slot{})
	return v.(*slot)
}

// withEntry runs fn under the user's lock and stores what it returns.
func (l *CreditLedger) withEntry(userID domain.UserID, plan domain.Plan, fn func(domain.CreditEntry, time.Time) (domain.CreditEntry, error)) (domain.CreditBalance, error) {
	s := l.slot(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	now := l.now()
	if s.entry == nil {
		e := domain.NewCreditEntry(userID, plan, l.policy, now)
		s.entry = &e
	}
	next, err := fn(*s.entry, now)
	if err != nil {
		return next.View(), err
	}
	*s.entry = next
	return next.View(), nil
}

func (l *CreditLedger) Consume(ctx context.Context, userID domain.UserID, plan domain.Plan, cost int64) (domain.CreditBalance, error) {
	return l.withEntry(userID, plan, func(e domain.CreditEntry, now time.Time) (domain.CreditEntry, error) {
		return e.Consume(plan, cost, l.policy, now)
	})
}

func (l *CreditLedger) Peek(ctx context.Context, userID domain.UserID, plan domain.Plan) (domain.CreditBalance, error) {
	s := l.slot(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	now := l.now()
	if s.entry == nil {
		return domain.NewCreditEntry(userID, plan, l.policy, now).View(), nil
	}
	return s.entry.Refreshed(plan, l.policy, now).View(), nil
}

func (l *CreditLedger) Credit(ctx context.Context, userID domain.UserID, plan domain.Plan, amount int64) (domain.CreditBalance, error) {
	return l.withEntry(userID, plan, func(e domain.CreditEntry, now time.Time) (domain.CreditEntry, error) {
		return e.Credit(plan, amount, l.policy, now), nil
	})
}

var _ ports.CreditLedger = (*CreditLedger)(nil)
