package domain

import (
	"time"

	domerrors "github.com/amirhosseinghanipour/scaffold/internal/domain/errors"
)

// CreditPolicy holds per-plan allowances and the reset window length.
type CreditPolicy struct {
	FreePoints int64
	ProPoints  int64
	Window     time.Duration
}

// DefaultCreditPolicy matches the hosted free and pro plans.
func DefaultCreditPolicy() CreditPolicy {
	return CreditPolicy{FreePoints: 5, ProPoints: 100, Window: 30 * 24 * time.Hour}
}

// Allowance returns the balance a window starts with for plan.
func (p CreditPolicy) Allowance(plan Plan) int64 {
	if plan == PlanPro {
		return p.ProPoints
	}
	return p.FreePoints
}

// CreditEntry is one row of the ledger. Storage adapters load it under a
// per-user lock, apply one of the methods below, and write it back.
type CreditEntry struct {
	UserID        UserID
	Plan          Plan
	Balance       int64
	WindowResetAt time.Time
	UpdatedAt     time.Time
}

// CreditBalance is what callers get to see of an entry.
type CreditBalance struct {
	Remaining int64
	ResetAt   time.Time
}

// NewCreditEntry opens a full window for a user seen for the first time.
func NewCreditEntry(userID UserID, plan Plan, policy CreditPolicy, now time.Time) CreditEntry {
	return CreditEntry{
		UserID:        userID,
		Plan:          plan,
		Balance:       policy.Allowance(plan),
		WindowResetAt: now.Add(policy.Window),
		UpdatedAt:     now,
	}
}

// View returns the public view of the entry.
func (e CreditEntry) View() CreditBalance {
	return CreditBalance{Remaining: e.Balance, ResetAt: e.WindowResetAt}
}

// Refreshed returns the entry with the window reset applied if it has elapsed.
// The current plan decides the new allowance.
func (e CreditEntry) Refreshed(plan Plan, policy CreditPolicy, now time.Time) CreditEntry {
	if now.Before(e.WindowResetAt) {
		return e
	}
	e.Plan = plan
	e.Balance = policy.Allowance(plan)
	e.WindowResetAt = now.Add(policy.Window)
	e.UpdatedAt = now
	return e
}

// Consume resets an elapsed window, then takes cost from the balance. The
// entry is returned unchanged together with ErrInsufficientCredits when the
// balance does not cover cost.
func (e CreditEntry) Consume(plan Plan, cost int64, policy CreditPolicy, now time.Time) (CreditEntry, error) {
	next := e.Refreshed(plan, policy, now)
	if next.Balance < cost {
		return next, domerrors.ErrInsufficientCredits
	}
	next.Balance -= cost
	next.UpdatedAt = now
	return next, nil
}

// Credit adds amount to the (refreshed) balance. Refunds and admin grants
// both go through here.
func (e CreditEntry) Credit(plan Plan, amount int64, policy CreditPolicy, now time.Time) CreditEntry {
	next := e.Refreshed(plan, policy, now)
	next.Balance += amount
	next.UpdatedAt = now
	return next
}
