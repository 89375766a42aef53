package usage

import (
	"context"
	"errors"
	"time"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
	"github.com/amirhosseinghanipour/scaffold/internal/domain"
)

// Status is the caller's remaining credits and when the window resets.
type Status struct {
	Remaining int64
	ResetAt   time.Time
}

// GetStatus reads the ledger without consuming.
type GetStatus struct {
	ledger ports.CreditLedger
}

// NewGetStatus builds the use case.
func NewGetStatus(ledger ports.CreditLedger) *GetStatus {
	return &GetStatus{ledger: ledger}
}

// Execute peeks at the user's balance.
func (uc *GetStatus) Execute(ctx context.Context, userID domain.UserID, plan domain.Plan) (*Status, error) {
	bal, err := uc.ledger.Peek(ctx, userID, plan)
	if err != nil {
		return nil, err
	}
	return &Status{Remaining: bal.Remaining, ResetAt: bal.ResetAt}, nil
}

// ErrInvalidAmount rejects non-positive grants.
var ErrInvalidAmount = errors.New("amount must be positive")

// GrantCreditsInput adds credits to a user, for manual reconciliation.
type GrantCreditsInput struct {
	UserID domain.UserID
	Plan   domain.Plan
	Amount int64
}

// GrantCredits is the admin side of the ledger.
type GrantCredits struct {
	ledger ports.CreditLedger
}

// NewGrantCredits builds the use case.
func NewGrantCredits(ledger ports.CreditLedger) *GrantCredits {
	return &GrantCredits{ledger: ledger}
}

// Execute credits the user and returns the new status.
func (uc *GrantCredits) Execute(ctx context.Context, input GrantCreditsInput) (*Status, error) {
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	bal, err := uc.ledger.Credit(ctx, input.UserID, input.Plan, input.Amount)
	if err != nil {
		return nil, err
	}
	return &Status{Remaining: bal.Remaining, ResetAt: bal.ResetAt}, nil
}
