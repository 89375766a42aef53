package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
	"github.com/amirhosseinghanipour/scaffold/internal/domain"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/persistence/db"
)

// CreditLedger keeps one row per user in credit_ledger. Mutations run in a
// transaction holding the row lock (SELECT ... FOR UPDATE), which serializes
// concurrent admissions for the same user across processes.
type CreditLedger struct {
	q      *db.Queries
	pool   *pgxpool.Pool
	policy domain.CreditPolicy
	now    func() time.Time
}

func NewCreditLedger(q *db.Queries, pool *pgxpool.Pool, policy domain.CreditPolicy) *CreditLedger {
	return &CreditLedger{q: q, pool: pool, policy: policy, now: time.Now}
}

func (l *CreditLedger) Consume(ctx context.Context, userID domain.UserID, plan domain.Plan, cost int64) (domain.CreditBalance, error) {
	return l.update(ctx, userID, plan, func(e domain.CreditEntry, now time.Time) (domain.CreditEntry, error) {
		return e.Consume(plan, cost, l.policy, now)
	})
}

func (l *CreditLedger) Credit(ctx context.Context, userID domain.UserID, plan domain.Plan, amount int64) (domain.CreditBalance, error) {
	return l.update(ctx, userID, plan, func(e domain.CreditEntry, now time.Time) (domain.CreditEntry, error) {
		return e.Credit(plan, amount, l.policy, now), nil
	})
}

// Peek applies an elapsed window reset to the returned view only.
func (l *CreditLedger) Peek(ctx context.Context, userID domain.UserID, plan domain.Plan) (domain.CreditBalance, error) {
	now := l.now()
	row, err := l.q.GetCreditEntry(ctx, userID.String())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NewCreditEntry(userID, plan, l.policy, now).View(), nil
		}
		return domain.CreditBalance{}, err
	}
	return dbCreditToDomain(row).Refreshed(plan, l.policy, now).View(), nil
}

func (l *CreditLedger) update(ctx context.Context, userID domain.UserID, plan domain.Plan, fn func(domain.CreditEntry, time.Time) (domain.CreditEntry, error)) (domain.CreditBalance, error) {
	var bal domain.CreditBalance
	err := inTx(ctx, l.pool, func(q *db.Queries) error {
		now := l.now()
		fresh := domain.NewCreditEntry(userID, plan, l.policy, now)
		if err := q.EnsureCreditEntry(ctx, db.EnsureCreditEntryParams{
			UserID:        fresh.UserID.String(),
			Plan:          string(fresh.Plan),
			Balance:       fresh.Balance,
			WindowResetAt: fresh.WindowResetAt,
			UpdatedAt:     fresh.UpdatedAt,
		}); err != nil {
			return err
		}
		row, err := q.GetCreditEntryForUpdate(ctx, userID.String())
		if err != nil {
			return err
		}
		next, err := fn(dbCreditToDomain(row), now)
		bal = next.View()
		if err != nil {
			return err
		}
		return q.UpdateCreditEntry(ctx, db.UpdateCreditEntryParams{
			UserID:        next.UserID.String(),
			Plan:          string(next.Plan),
			Balance:       next.Balance,
			WindowResetAt: next.WindowResetAt,
			UpdatedAt:     next.UpdatedAt,
		})
	})
	return bal, err
}

func dbCreditToDomain(r db.CreditLedger) domain.CreditEntry {
	return domain.CreditEntry{
		UserID:        domain.UserID(r.UserID),
		Plan:          domain.ParsePlan(r.Plan),
		Balance:       r.Balance,
		WindowResetAt: r.WindowResetAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

var _ ports.CreditLedger = (*CreditLedger)(nil)
