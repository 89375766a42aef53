package usage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhosseinghanipour/scaffold/internal/domain"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/persistence/memory"
)

func TestStatusAndGrant(t *testing.T) {
	ledger := memory.NewCreditLedger(domain.CreditPolicy{FreePoints: 2, ProPoints: 10, Window: time.Hour})
	ctx := context.Background()

	st, err := NewGetStatus(ledger).Execute(ctx, "user_1", domain.PlanPro)
	require.NoError(t, err)
	assert.Equal(t, int64(10), st.Remaining)

	_, err = ledger.Consume(ctx, "user_1", domain.PlanPro, 10)
	require.NoError(t, err)

	grant := NewGrantCredits(ledger)
	_, err = grant.Execute(ctx, GrantCreditsInput{UserID: "user_1", Plan: domain.PlanPro, Amount: 0})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	st, err = grant.Execute(ctx, GrantCreditsInput{UserID: "user_1", Plan: domain.PlanPro, Amount: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.Remaining)
}
