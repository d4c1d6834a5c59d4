package service_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/gamecafe-session-engine/internal/database/dbtest"
	"github.com/iliyamo/gamecafe-session-engine/internal/model"
	"github.com/iliyamo/gamecafe-session-engine/internal/pricing"
	"github.com/iliyamo/gamecafe-session-engine/internal/queue"
	"github.com/iliyamo/gamecafe-session-engine/internal/repository"
	"github.com/iliyamo/gamecafe-session-engine/internal/service"
)

// wednesday4pm falls inside the weekday 15:00-17:00 happy hour.
var wednesday4pm = time.Date(2024, 1, 3, 16, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []queue.Event
}

func (r *recorder) Publish(_ context.Context, ev queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

type fixture struct {
	t        testing.TB
	ctx      context.Context
	store    *repository.Store
	now      time.Time
	events   *recorder
	sessions *service.Sessions
	ledger   *service.Ledger
	hours    *service.HappyHours
}

func newFixture(t testing.TB) *fixture {
	t.Helper()
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		store:  repository.NewStore(dbtest.Open(t)),
		now:    wednesday4pm,
		events: &recorder{},
	}
	clock := func() time.Time { return f.now }
	deps := service.Deps{
		Store:   f.store,
		Pricing: pricing.NewCalculator(f.store.HappyHours, clock),
		Events:  f.events,
		Logger:  zap.NewNop(),
		Clock:   clock,
	}
	f.sessions = service.NewSessions(deps, decimal.RequireFromString("5.00"))
	f.ledger = service.NewLedger(deps)
	f.hours = service.NewHappyHours(deps)
	return f
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) member(name, balance string) model.Member {
	f.t.Helper()
	id, err := f.store.Members.Create(f.ctx, name, "hash", model.RoleMember, model.TierSilver, f.now)
	require.NoError(f.t, err)
	if balance != "" && !dec(balance).IsZero() {
		require.NoError(f.t, f.store.InTx(f.ctx, func(tx *sql.Tx) error {
			_, err := f.store.Members.CreditTx(f.ctx, tx, id, dec(balance), f.now)
			return err
		}))
	}
	return f.reloadMember(id)
}

func (f *fixture) reloadMember(id uint64) model.Member {
	f.t.Helper()
	m, err := f.store.Members.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return m
}

func (f *fixture) terminal(name string) model.Terminal {
	f.t.Helper()
	t, err := f.store.Terminals.Create(f.ctx, name, f.now)
	require.NoError(f.t, err)
	return t
}

func (f *fixture) reloadTerminal(id uint64) model.Terminal {
	f.t.Helper()
	t, err := f.store.Terminals.GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return t
}

func (f *fixture) pkg(name string, hours int, price string) model.TimePackage {
	f.t.Helper()
	p, err := f.store.Packages.Create(f.ctx, model.TimePackage{Name: name, DurationHours: hours, Price: dec(price), IsActive: true})
	require.NoError(f.t, err)
	return p
}

func (f *fixture) weekdayHappyHour(start, end string, pct int) model.HappyHour {
	f.t.Helper()
	h, err := f.hours.Create(f.ctx, model.HappyHour{
		Name: "Weekday", DaysOfWeek: []int{1, 2, 3, 4, 5}, StartTime: start, EndTime: end,
		DiscountPercent: pct, IsActive: true,
	})
	require.NoError(f.t, err)
	return h
}

func (f *fixture) notifications(memberID uint64) []model.Notification {
	f.t.Helper()
	list, err := f.store.Notifications.List(f.ctx, &memberID)
	require.NoError(f.t, err)
	return list
}

func (f *fixture) activity() []model.ActivityLog {
	f.t.Helper()
	list, err := f.store.Activity.List(f.ctx, 100)
	require.NoError(f.t, err)
	return list
}

func ptr[T any](v T) *T { return &v }
