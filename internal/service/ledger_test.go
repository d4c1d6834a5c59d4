package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/gamecafe-session-engine/internal/model"
	"github.com/iliyamo/gamecafe-session-engine/internal/queue"
	"github.com/iliyamo/gamecafe-session-engine/internal/repository"
	"github.com/iliyamo/gamecafe-session-engine/internal/service"
)

func TestCreditAddsAmount(t *testing.T) {
	f := newFixture(t)
	for _, tc := range []struct{ start, amount, want string }{
		{"0", "10.00", "10.00"},
		{"4.00", "0.01", "4.01"},
		{"19.99", "0.01", "20.00"},
		{"12.34", "100.00", "112.34"},
	} {
		m := f.member("m"+tc.start+tc.amount, tc.start)
		got, err := f.ledger.Credit(f.ctx, m.ID, dec(tc.amount))
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.Balance.StringFixed(2))
	}
}

func TestLedgerRejectsNonPositive(t *testing.T) {
	f := newFixture(t)
	m := f.member("alice", "5.00")
	for _, amt := range []string{"0", "-1.00"} {
		_, err := f.ledger.Credit(f.ctx, m.ID, dec(amt))
		assert.ErrorIs(t, err, service.ErrInvalidAmount)
		_, err = f.ledger.Debit(f.ctx, m.ID, dec(amt))
		assert.ErrorIs(t, err, service.ErrInvalidAmount)
		_, err = f.ledger.TopUp(f.ctx, m.ID, dec(amt))
		assert.ErrorIs(t, err, service.ErrInvalidAmount)
	}
	_, err := f.ledger.EarnPoints(f.ctx, m.ID, 0)
	assert.ErrorIs(t, err, service.ErrInvalidAmount)
}

func TestDebitIsUnconditional(t *testing.T) {
	f := newFixture(t)
	m := f.member("alice", "2.00")
	got, err := f.ledger.Debit(f.ctx, m.ID, dec("5.00"))
	require.NoError(t, err)
	assert.Equal(t, "-3.00", got.Balance.StringFixed(2))
}

func TestLedgerMissingMember(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.Credit(f.ctx, 404, dec("1.00"))
	assert.ErrorIs(t, err, repository.ErrMemberNotFound)
	_, err = f.ledger.TopUp(f.ctx, 404, dec("1.00"))
	assert.ErrorIs(t, err, repository.ErrMemberNotFound)
	assert.Empty(t, f.activity())
}

func TestTopUpLogsAndPublishes(t *testing.T) {
	f := newFixture(t)
	m := f.member("alice", "4.00")
	got, err := f.ledger.TopUp(f.ctx, m.ID, dec("10.00"))
	require.NoError(t, err)
	assert.Equal(t, "14.00", got.Balance.StringFixed(2))

	log := f.activity()
	require.Len(t, log, 1)
	assert.Equal(t, model.ActivityTopUp, log[0].Type)
	require.NotNil(t, log[0].UserID)
	assert.Equal(t, m.ID, *log[0].UserID)
	assert.Equal(t, []string{queue.TypeMemberToppedUp}, f.events.types())
}

func TestEarnPoints(t *testing.T) {
	f := newFixture(t)
	m := f.member("alice", "")
	got, err := f.ledger.EarnPoints(f.ctx, m.ID, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(12), got.Points)
}
