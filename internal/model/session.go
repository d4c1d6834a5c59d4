package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// SessionStatus is the persisted value of sessions.status.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

// SessionState is the lifecycle state of a session. It is closed: only
// Active and Ended implement it, so a session with an end time but an
// active status cannot be constructed.
type SessionState interface {
	Status() SessionStatus
	Started() time.Time
	Cost() decimal.Decimal
	sessionState()
}

// Active is a running session. DurationMinutes is nil for open-ended
// sessions; ProvisionalCost is what was charged up front.
type Active struct {
	StartTime       time.Time
	DurationMinutes *int
	ProvisionalCost decimal.Decimal
}

func (Active) Status() SessionStatus { return SessionActive }
func (a Active) Started() time.Time { return a.StartTime }
func (a Active) Cost() decimal.Decimal { return a.ProvisionalCost }
func (Active) sessionState() {}

// Ended is a closed session. FinalCost overwrote the provisional cost when
// the session ended.
type Ended struct {
	StartTime       time.Time
	EndTime         time.Time
	DurationMinutes *int
	FinalCost       decimal.Decimal
}

func (Ended) Status() SessionStatus { return SessionEnded }
func (e Ended) Started() time.Time { return e.StartTime }
func (e Ended) Cost() decimal.Decimal { return e.FinalCost }
func (Ended) sessionState() {}

// Session is one occupancy of a terminal by a member.
type Session struct {
	ID         uint64
	MemberID   uint64
	TerminalID uint64
	State      SessionState
}

// IsActive reports whether the session has not ended yet.
func (s Session) IsActive() bool {
	_, ok := s.State.(Active)
	return ok
}

// Duration returns the nominal duration in minutes, or nil when the
// session is open-ended.
func (s Session) Duration() *int {
	switch st := s.State.(type) {
	case Active:
		return st.DurationMinutes
	case Ended:
		return st.DurationMinutes
	}
	return nil
}

// EndTime returns the end timestamp of an ended session.
func (s Session) EndTime() (time.Time, bool) {
	if e, ok := s.State.(Ended); ok {
		return e.EndTime, true
	}
	return time.Time{}, false
}

// MarshalJSON flattens the state into the wire shape used by clients:
// status, startTime, endTime (null while active), durationMinutes and
// totalCost as a two-decimal string.
func (s Session) MarshalJSON() ([]byte, error) {
	out := struct {
		ID              uint64        `json:"id"`
		MemberID        uint64        `json:"memberId"`
		TerminalID      uint64        `json:"terminalId"`
		Status          SessionStatus `json:"status"`
		StartTime       time.Time     `json:"startTime"`
		EndTime         *time.Time    `json:"endTime"`
		DurationMinutes *int          `json:"durationMinutes"`
		TotalCost       string        `json:"totalCost"`
	}{
		ID:              s.ID,
		MemberID:        s.MemberID,
		TerminalID:      s.TerminalID,
		DurationMinutes: s.Duration(),
	}
	if s.State != nil {
		out.Status = s.State.Status()
		out.StartTime = s.State.Started()
		out.TotalCost = s.State.Cost().StringFixed(2)
	}
	if end, ok := s.EndTime(); ok {
		out.EndTime = &end
	}
	return json.Marshal(out)
}
