package repository_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/gamecafe-session-engine/internal/database/dbtest"
	"github.com/iliyamo/gamecafe-session-engine/internal/model"
	"github.com/iliyamo/gamecafe-session-engine/internal/repository"
)

var t0 = time.Date(2024, 1, 3, 16, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *repository.Store {
	t.Helper()
	return repository.NewStore(dbtest.Open(t))
}

func seedMember(t *testing.T, s *repository.Store, name string, balance string) uint64 {
	t.Helper()
	ctx := context.Background()
	id, err := s.Members.Create(ctx, name, "hash", model.RoleMember, model.TierBronze, t0)
	require.NoError(t, err)
	if balance != "" {
		require.NoError(t, s.InTx(ctx, func(tx *sql.Tx) error {
			_, err := s.Members.CreditTx(ctx, tx, id, decimal.RequireFromString(balance), t0)
			return err
		}))
	}
	return id
}

func TestMemberCreateDuplicateUsername(t *testing.T) {
	s := newStore(t)
	seedMember(t, s, "alice", "")
	_, err := s.Members.Create(context.Background(), "alice", "x", model.RoleMember, model.TierBronze, t0)
	assert.ErrorIs(t, err, repository.ErrUsernameTaken)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestCreditDebitRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	id := seedMember(t, s, "alice", "20.00")

	var m model.Member
	require.NoError(t, s.InTx(ctx, func(tx *sql.Tx) error {
		var err error
		if _, err = s.Members.CreditTx(ctx, tx, id, decimal.RequireFromString("7.35"), t0); err != nil {
			return err
		}
		m, err = s.Members.DebitTx(ctx, tx, id, decimal.RequireFromString("7.35"), t0)
		return err
	}))
	assert.True(t, m.Balance.Equal(decimal.RequireFromString("20.00")), "balance %s", m.Balance)
}

func TestDebitMayGoNegative(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	id := seedMember(t, s, "alice", "1.00")

	var m model.Member
	require.NoError(t, s.InTx(ctx, func(tx *sql.Tx) error {
		var err error
		m, err = s.Members.DebitTx(ctx, tx, id, decimal.RequireFromString("3.50"), t0)
		return err
	}))
	assert.Equal(t, "-2.50", m.Balance.StringFixed(2))
}

func TestDebitCoveredRejectsShortfall(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	id := seedMember(t, s, "alice", "5.00")

	err := s.InTx(ctx, func(tx *sql.Tx) error {
		_, err := s.Members.DebitCoveredTx(ctx, tx, id, decimal.RequireFromString("5.01"), t0)
		return err
	})
	require.ErrorIs(t, err, repository.ErrInsufficientBalance)

	m, err := s.Members.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "5.00", m.Balance.StringFixed(2))

	require.NoError(t, s.InTx(ctx, func(tx *sql.Tx) error {
		m, err = s.Members.DebitCoveredTx(ctx, tx, id, decimal.RequireFromString("5.00"), t0)
		return err
	}))
	assert.True(t, m.Balance.IsZero())
}

func TestDebitCoveredMissingMember(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	err := s.InTx(ctx, func(tx *sql.Tx) error {
		_, err := s.Members.DebitCoveredTx(ctx, tx, 99, decimal.NewFromInt(1), t0)
		return err
	})
	assert.ErrorIs(t, err, repository.ErrMemberNotFound)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConcurrentCreditsAreNotLost(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	id := seedMember(t, s, "alice", "")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.InTx(ctx, func(tx *sql.Tx) error {
				_, err := s.Members.CreditTx(ctx, tx, id, decimal.RequireFromString("0.10"), t0)
				return err
			}))
		}()
	}
	wg.Wait()

	m, err := s.Members.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2.00", m.Balance.StringFixed(2))
}

func TestOccupyIsConditional(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	alice := seedMember(t, s, "alice", "")
	bob := seedMember(t, s, "bob", "")
	term, err := s.Terminals.Create(ctx, "PC-01", t0)
	require.NoError(t, err)

	require.NoError(t, s.InTx(ctx, func(tx *sql.Tx) error {
		return s.Terminals.OccupyTx(ctx, tx, term.ID, alice, t0)
	}))
	err = s.InTx(ctx, func(tx *sql.Tx) error {
		return s.Terminals.OccupyTx(ctx, tx, term.ID, bob, t0)
	})
	assert.ErrorIs(t, err, repository.ErrTerminalBusy)

	got, err := s.Terminals.GetByID(ctx, term.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TerminalOccupied, got.Status)
	require.NotNil(t, got.CurrentUserID)
	assert.Equal(t, alice, *got.CurrentUserID)

	// releasing on behalf of the wrong member is a no-op
	require.NoError(t, s.InTx(ctx, func(tx *sql.Tx) error {
		return s.Terminals.ReleaseTx(ctx, tx, term.ID, bob, t0)
	}))
	got, _ = s.Terminals.GetByID(ctx, term.ID)
	assert.Equal(t, model.TerminalOccupied, got.Status)

	require.NoError(t, s.InTx(ctx, func(tx *sql.Tx) error {
		return s.Terminals.ReleaseTx(ctx, tx, term.ID, alice, t0)
	}))
	got, _ = s.Terminals.GetByID(ctx, term.ID)
	assert.Equal(t, model.TerminalAvailable, got.Status)
	assert.Nil(t, got.CurrentUserID)
}

func TestUpdateStatusRules(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	alice := seedMember(t, s, "alice", "")
	term, err := s.Terminals.Create(ctx, "PC-01", t0)
	require.NoError(t, err)

	_, err = s.Terminals.UpdateStatus(ctx, term.ID, model.TerminalOccupied, t0)
	assert.ErrorIs(t, err, repository.ErrManualOccupy)
	_, err = s.Terminals.UpdateStatus(ctx, term.ID, "Broken", t0)
	assert.ErrorIs(t, err, repository.ErrInvalidStatus)

	require.NoError(t, s.InTx(ctx, func(tx *sql.Tx) error {
		return s.Terminals.OccupyTx(ctx, tx, term.ID, alice, t0)
	}))
	_, err = s.Terminals.UpdateStatus(ctx, term.ID, model.TerminalAvailable, t0)
	assert.ErrorIs(t, err, repository.ErrTerminalBusy)

	got, err := s.Terminals.UpdateStatus(ctx, term.ID, model.TerminalMaintenance, t0)
	require.NoError(t, err)
	assert.Equal(t, model.TerminalMaintenance, got.Status)

	_, err = s.Terminals.UpdateStatus(ctx, 404, model.TerminalOffline, t0)
	assert.ErrorIs(t, err, repository.ErrTerminalNotFound)
}

func TestReleaseClearsOccupantAfterOverride(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	alice := seedMember(t, s, "alice", "")
	term, err := s.Terminals.Create(ctx, "PC-01", t0)
	require.NoError(t, err)
	require.NoError(t, s.InTx(ctx, func(tx *sql.Tx) error {
		return s.Terminals.OccupyTx(ctx, tx, term.ID, alice, t0)
	}))
	_, err = s.Terminals.SetGame(ctx, term.ID, ptr("Quake"), t0)
	require.NoError(t, err)
	_, err = s.Terminals.UpdateStatus(ctx, term.ID, model.TerminalOffline, t0)
	require.NoError(t, err)

	require.NoError(t, s.InTx(ctx, func(tx *sql.Tx) error {
		return s.Terminals.ReleaseTx(ctx, tx, term.ID, alice, t0)
	}))
	got, err := s.Terminals.GetByID(ctx, term.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TerminalOffline, got.Status)
	assert.Nil(t, got.CurrentUserID)
	assert.Nil(t, got.CurrentGame)
}

func TestSessionEndIsConditional(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	alice := seedMember(t, s, "alice", "")
	term, err := s.Terminals.Create(ctx, "PC-01", t0)
	require.NoError(t, err)

	dur := 60
	var sess model.Session
	require.NoError(t, s.InTx(ctx, func(tx *sql.Tx) error {
		sess, err = s.Sessions.CreateTx(ctx, tx, alice, term.ID, model.Active{
			StartTime: t0, DurationMinutes: &dur, ProvisionalCost: decimal.RequireFromString("5.00"),
		})
		return err
	}))

	active, err := s.Sessions.ActiveByTerminal(ctx, term.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, active.ID)
	assert.True(t, active.IsActive())

	var first, second bool
	require.NoError(t, s.InTx(ctx, func(tx *sql.Tx) error {
		first, err = s.Sessions.EndTx(ctx, tx, sess.ID, t0.Add(time.Hour), decimal.RequireFromString("4.25"))
		return err
	}))
	require.NoError(t, s.InTx(ctx, func(tx *sql.Tx) error {
		second, err = s.Sessions.EndTx(ctx, tx, sess.ID, t0.Add(2*time.Hour), decimal.Zero)
		return err
	}))
	assert.True(t, first)
	assert.False(t, second)

	got, err := s.Sessions.GetByID(ctx, sess.ID)
	require.NoError(t, err)
	ended, ok := got.State.(model.Ended)
	require.True(t, ok)
	assert.True(t, ended.EndTime.Equal(t0.Add(time.Hour)))
	assert.Equal(t, "4.25", ended.FinalCost.StringFixed(2))
	require.NotNil(t, ended.DurationMinutes)
	assert.Equal(t, 60, *ended.DurationMinutes)

	_, err = s.Sessions.ActiveByTerminal(ctx, term.ID)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestCorruptSessionRowIsRejected(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	alice := seedMember(t, s, "alice", "")
	term, err := s.Terminals.Create(ctx, "PC-01", t0)
	require.NoError(t, err)

	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO sessions (member_id, terminal_id, start_time, end_time, status, total_cost) VALUES (?, ?, ?, ?, ?, ?)`,
		alice, term.ID, t0, t0.Add(time.Hour), "active", "0")
	require.NoError(t, err)

	_, err = s.Sessions.GetByID(ctx, 1)
	assert.ErrorIs(t, err, repository.ErrCorruptSession)
}

func TestHappyHourDaysRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	h, err := s.HappyHours.Create(ctx, model.HappyHour{
		Name: "Weekday", DaysOfWeek: []int{1, 2, 3, 4, 5}, StartTime: "14:00", EndTime: "17:00",
		DiscountPercent: 50, IsActive: true,
	})
	require.NoError(t, err)
	_, err = s.HappyHours.Create(ctx, model.HappyHour{
		Name: "Off", DaysOfWeek: []int{0}, StartTime: "10:00", EndTime: "11:00", DiscountPercent: 10,
	})
	require.NoError(t, err)

	active, err := s.HappyHours.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, h.ID, active[0].ID)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, active[0].DaysOfWeek)
}

func TestNotificationsScopedToMember(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	alice := seedMember(t, s, "alice", "")
	bob := seedMember(t, s, "bob", "")

	var n model.Notification
	require.NoError(t, s.InTx(ctx, func(tx *sql.Tx) error {
		var err error
		n, err = s.Notifications.CreateTx(ctx, tx, model.Notification{
			MemberID: &alice, Type: model.NotificationLowBalance, Title: "Low Balance", Message: "top up", CreatedAt: t0,
		})
		return err
	}))

	assert.ErrorIs(t, s.Notifications.MarkRead(ctx, n.ID, &bob), repository.ErrNotificationNotFound)
	require.NoError(t, s.Notifications.MarkRead(ctx, n.ID, &alice))
	require.NoError(t, s.Notifications.MarkRead(ctx, n.ID, &alice))

	list, err := s.Notifications.List(ctx, &alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsRead)

	list, err = s.Notifications.List(ctx, &bob)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRefreshTokenLifecycle(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	alice := seedMember(t, s, "alice", "")

	require.NoError(t, s.Tokens.StoreRefresh(ctx, alice, "h1", t0.Add(time.Hour), t0))
	id, err := s.Tokens.ValidateRefresh(ctx, "h1", t0)
	require.NoError(t, err)
	assert.Equal(t, alice, id)

	_, err = s.Tokens.ValidateRefresh(ctx, "h1", t0.Add(2*time.Hour))
	assert.ErrorIs(t, err, repository.ErrRefreshInvalid)

	require.NoError(t, s.Tokens.RevokeByHash(ctx, "h1", t0))
	_, err = s.Tokens.ValidateRefresh(ctx, "h1", t0)
	assert.ErrorIs(t, err, repository.ErrRefreshInvalid)

	_, err = s.Tokens.ValidateRefresh(ctx, "unknown", t0)
	assert.ErrorIs(t, err, repository.ErrRefreshInvalid)
}

func ptr[T any](v T) *T { return &v }
