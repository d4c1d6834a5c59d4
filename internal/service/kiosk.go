package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/gamecafe-session-engine/internal/repository"
)

// GuestTier is reported by an idle kiosk.
const GuestTier = "Guest"

// KioskStatus is what a terminal's lock screen polls for.
type KioskStatus struct {
	Active          bool
	SessionID       *uint64
	Username        string
	TimeRemaining   int64
	Balance         decimal.Decimal
	MemberTier      string
	DurationMinutes int
	StartTime       *time.Time
}

func (k KioskStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Active          bool       `json:"active"`
		SessionID       *uint64    `json:"sessionId,omitempty"`
		Username        string     `json:"username"`
		TimeRemaining   int64      `json:"timeRemaining"`
		Balance         string     `json:"balance"`
		MemberTier      string     `json:"memberTier"`
		DurationMinutes int        `json:"durationMinutes"`
		StartTime       *time.Time `json:"startTime,omitempty"`
	}{k.Active, k.SessionID, k.Username, k.TimeRemaining, k.Balance.StringFixed(2), k.MemberTier, k.DurationMinutes, k.StartTime})
}

// KioskStatus projects the active session on a terminal, if any. It reads
// only; nothing expires server side when the countdown reaches zero.
func (s *Sessions) KioskStatus(ctx context.Context, terminalID uint64) (KioskStatus, error) {
	if _, err := s.Store.Terminals.GetByID(ctx, terminalID); err != nil {
		return KioskStatus{}, err
	}
	idle := KioskStatus{Balance: decimal.Zero, MemberTier: GuestTier}
	sess, err := s.Store.Sessions.ActiveByTerminal(ctx, terminalID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return idle, nil
	}
	if err != nil {
		return KioskStatus{}, err
	}
	member, err := s.Store.Members.GetByID(ctx, sess.MemberID)
	if err != nil {
		return KioskStatus{}, err
	}
	d := DefaultDurationMinutes
	if p := sess.Duration(); p != nil {
		d = *p
	}
	start := sess.State.Started()
	id := sess.ID
	return KioskStatus{
		Active:          true,
		SessionID:       &id,
		Username:        member.Username,
		TimeRemaining:   Remaining(start, &d, s.Clock()),
		Balance:         member.Balance,
		MemberTier:      member.Tier,
		DurationMinutes: d,
		StartTime:       &start,
	}, nil
}
