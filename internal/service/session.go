package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/gamecafe-session-engine/internal/model"
	"github.com/iliyamo/gamecafe-session-engine/internal/pricing"
	"github.com/iliyamo/gamecafe-session-engine/internal/queue"
	"github.com/iliyamo/gamecafe-session-engine/internal/repository"
)

// LowBalanceThreshold is the post-debit balance below which a session
// start raises a low_balance notification.
var LowBalanceThreshold = decimal.NewFromInt(10)

// PointsPerCurrencyUnit is how many loyalty points one whole currency unit
// spent on a time package earns.
const PointsPerCurrencyUnit = 1

// DefaultDurationMinutes is the nominal length used for the countdown of
// open-ended sessions.
const DefaultDurationMinutes = 120

// StartInput is the request to open a session. TimePackageID is nil for an
// open-ended session billed at the end.
type StartInput struct {
	MemberID      uint64
	TerminalID    uint64
	TimePackageID *uint64
}

// Sessions runs the session state machine.
type Sessions struct {
	Deps
	hourlyRate decimal.Decimal
}

// NewSessions returns the session service. hourlyRate bills open-ended
// sessions in Checkout.
func NewSessions(d Deps, hourlyRate decimal.Decimal) *Sessions {
	return &Sessions{Deps: d.withDefaults(), hourlyRate: hourlyRate}
}

// Start opens a session for a member on a terminal. With a time package
// the happy-hour adjusted price is debited up front; the debit, session
// row, terminal occupation, activity entry and low-balance notification
// commit together or not at all.
func (s *Sessions) Start(ctx context.Context, in StartInput) (model.Session, error) {
	member, err := s.Store.Members.GetByID(ctx, in.MemberID)
	if err != nil {
		return model.Session{}, err
	}
	term, err := s.Store.Terminals.GetByID(ctx, in.TerminalID)
	if err != nil {
		return model.Session{}, err
	}
	switch term.Status {
	case model.TerminalMaintenance, model.TerminalOffline:
		return model.Session{}, fmt.Errorf("%w: %s is %s", ErrTerminalUnavailable, term.Name, term.Status)
	}

	var (
		cost     = decimal.Zero
		duration *int
		quote    pricing.Quote
	)
	if in.TimePackageID != nil {
		pkg, err := s.Store.Packages.GetByID(ctx, *in.TimePackageID)
		if err != nil {
			return model.Session{}, err
		}
		if !pkg.IsActive {
			return model.Session{}, repository.ErrPackageNotFound
		}
		quote, err = s.Pricing.Calculate(ctx, pkg.Price)
		if err != nil {
			return model.Session{}, err
		}
		cost = quote.DiscountedPrice.Round(2)
		d := pkg.TotalMinutes()
		duration = &d
	}

	now := s.stamp()
	var sess model.Session
	err = s.Store.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.Store.Sessions.ActiveByTerminalTx(ctx, tx, term.ID); err == nil {
			return repository.ErrTerminalBusy
		} else if !errors.Is(err, repository.ErrSessionNotFound) {
			return err
		}
		if in.TimePackageID != nil {
			member, err = s.Store.Members.DebitCoveredTx(ctx, tx, member.ID, cost, now)
			if err != nil {
				return err
			}
			if points := cost.Floor().IntPart() * PointsPerCurrencyUnit; points > 0 {
				if err := s.Store.Members.EarnPointsTx(ctx, tx, member.ID, points, now); err != nil {
					return err
				}
				member.Points += points
			}
		}
		sess, err = s.Store.Sessions.CreateTx(ctx, tx, member.ID, term.ID, model.Active{
			StartTime:       now,
			DurationMinutes: duration,
			ProvisionalCost: cost,
		})
		if err != nil {
			return err
		}
		if err := s.Store.Terminals.OccupyTx(ctx, tx, term.ID, member.ID, now); err != nil {
			return err
		}
		msg := fmt.Sprintf("%s started a session on %s", member.Username, term.Name)
		if _, err := s.Store.Activity.AppendTx(ctx, tx, model.ActivityLogin, &member.ID, msg, now); err != nil {
			return err
		}
		if in.TimePackageID != nil && member.Balance.LessThan(LowBalanceThreshold) {
			return s.notifyLowBalance(ctx, tx, member, now)
		}
		return nil
	})
	if err != nil {
		return model.Session{}, err
	}

	s.Logger.Info("session started",
		zap.Uint64("session_id", sess.ID),
		zap.Uint64("member_id", member.ID),
		zap.Uint64("terminal_id", term.ID),
		zap.String("cost", cost.StringFixed(2)),
		zap.Bool("happy_hour", quote.IsHappyHour))
	started := queue.SessionStarted{
		SessionID:       sess.ID,
		MemberID:        member.ID,
		TerminalID:      term.ID,
		DurationMinutes: duration,
		TotalCost:       cost.StringFixed(2),
		IsHappyHour:     quote.IsHappyHour,
		Balance:         member.Balance.StringFixed(2),
	}
	if in.TimePackageID != nil {
		started.TimePackageID = *in.TimePackageID
	}
	s.publish(ctx, queue.TypeSessionStarted, now, started)
	return sess, nil
}

func (s *Sessions) notifyLowBalance(ctx context.Context, tx *sql.Tx, m model.Member, now time.Time) error {
	_, err := s.Store.Notifications.CreateTx(ctx, tx, model.Notification{
		MemberID:  &m.ID,
		Type:      model.NotificationLowBalance,
		Title:     "Low Balance",
		Message:   fmt.Sprintf("Your balance is %s. Top up to keep playing.", m.Balance.StringFixed(2)),
		CreatedAt: now,
	})
	return err
}

// End closes a session. The final cost is totalCost, or 0.00 when nil,
// and replaces the provisional cost. Ending an already ended session
// returns it unchanged without touching the terminal or the activity log.
func (s *Sessions) End(ctx context.Context, id uint64, totalCost *decimal.Decimal) (model.Session, error) {
	if totalCost != nil && totalCost.IsNegative() {
		return model.Session{}, ErrInvalidCost
	}
	sess, err := s.Store.Sessions.GetByID(ctx, id)
	if err != nil {
		return model.Session{}, err
	}
	if !sess.IsActive() {
		return sess, nil
	}
	cost := decimal.Zero
	if totalCost != nil {
		cost = totalCost.Round(2)
	}
	return s.end(ctx, sess, cost)
}

// Checkout ends a session and fills in the cost when the caller gives
// none: a package session keeps what was charged at start, an open-ended
// session is billed for elapsed time at the hourly rate.
func (s *Sessions) Checkout(ctx context.Context, id uint64, totalCost *decimal.Decimal) (model.Session, error) {
	if totalCost != nil {
		return s.End(ctx, id, totalCost)
	}
	sess, err := s.Store.Sessions.GetByID(ctx, id)
	if err != nil {
		return model.Session{}, err
	}
	if !sess.IsActive() {
		return sess, nil
	}
	cost := sess.State.Cost()
	if sess.Duration() == nil {
		cost = ElapsedCost(sess.State.Started(), s.hourlyRate, s.stamp())
	}
	return s.end(ctx, sess, cost)
}

func (s *Sessions) end(ctx context.Context, sess model.Session, cost decimal.Decimal) (model.Session, error) {
	now := s.stamp()
	ended := false
	err := s.Store.InTx(ctx, func(tx *sql.Tx) error {
		ok, err := s.Store.Sessions.EndTx(ctx, tx, sess.ID, now, cost)
		if err != nil || !ok {
			return err
		}
		ended = true
		if err := s.Store.Terminals.ReleaseTx(ctx, tx, sess.TerminalID, sess.MemberID, now); err != nil {
			return err
		}
		msg := fmt.Sprintf("session %d on terminal %d ended, cost %s", sess.ID, sess.TerminalID, cost.StringFixed(2))
		_, err = s.Store.Activity.AppendTx(ctx, tx, model.ActivityLogout, &sess.MemberID, msg, now)
		return err
	})
	if err != nil {
		return model.Session{}, err
	}
	out, err := s.Store.Sessions.GetByID(ctx, sess.ID)
	if err != nil {
		return model.Session{}, err
	}
	if !ended {
		// a concurrent end won; report its result
		return out, nil
	}

	s.Logger.Info("session ended",
		zap.Uint64("session_id", sess.ID),
		zap.Uint64("terminal_id", sess.TerminalID),
		zap.String("cost", cost.StringFixed(2)))
	s.publish(ctx, queue.TypeSessionEnded, now, queue.SessionEnded{
		SessionID:  sess.ID,
		MemberID:   sess.MemberID,
		TerminalID: sess.TerminalID,
		StartedAt:  sess.State.Started().UTC().Format(time.RFC3339),
		EndedAt:    now.Format(time.RFC3339),
		TotalCost:  cost.StringFixed(2),
	})
	return out, nil
}

// Get returns one session.
func (s *Sessions) Get(ctx context.Context, id uint64) (model.Session, error) {
	return s.Store.Sessions.GetByID(ctx, id)
}

// ListActive returns all running sessions.
func (s *Sessions) ListActive(ctx context.Context) ([]model.Session, error) {
	return s.Store.Sessions.ListActive(ctx)
}

// List returns sessions with the given status, or all for "".
func (s *Sessions) List(ctx context.Context, status model.SessionStatus) ([]model.Session, error) {
	return s.Store.Sessions.List(ctx, status)
}

// ListByMember returns a member's sessions, newest first.
func (s *Sessions) ListByMember(ctx context.Context, memberID uint64) ([]model.Session, error) {
	return s.Store.Sessions.ListByMember(ctx, memberID)
}

// Remaining returns the seconds left on a session: the nominal duration
// (DefaultDurationMinutes when nil) minus whole elapsed seconds, never
// below zero.
func Remaining(start time.Time, durationMinutes *int, now time.Time) int64 {
	d := DefaultDurationMinutes
	if durationMinutes != nil {
		d = *durationMinutes
	}
	elapsed := int64(now.Sub(start) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	left := int64(d)*60 - elapsed
	if left < 0 {
		return 0
	}
	return left
}

// ElapsedCost bills the time since start at rate per hour, rounded to
// cents.
func ElapsedCost(start time.Time, rate decimal.Decimal, now time.Time) decimal.Decimal {
	secs := int64(now.Sub(start) / time.Second)
	if secs <= 0 {
		return decimal.Zero
	}
	return rate.Mul(decimal.NewFromInt(secs)).Div(decimal.NewFromInt(3600)).Round(2)
}
