// Package queue carries domain events over RabbitMQ: the publisher used by
// the services and the consumer that writes the session log.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types. Each type is published to the durable queue of the same name.
const (
	TypeSessionStarted = "session.started"
	TypeSessionEnded   = "session.ended"
	TypeMemberToppedUp = "member.topped_up"
)

// Types lists every queue the consumer listens on.
var Types = []string{TypeSessionStarted, TypeSessionEnded, TypeMemberToppedUp}

// Event is the envelope written to the broker. Data holds one of the
// payload structs below, encoded as JSON.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt string          `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// NewEvent wraps data in an envelope with a fresh id.
func NewEvent(typ string, at time.Time, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s: %w", typ, err)
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		OccurredAt: at.UTC().Format(time.RFC3339),
		Data:       raw,
	}, nil
}

// SessionStarted is published after a session start commits.
type SessionStarted struct {
	SessionID       uint64 `json:"session_id"`
	MemberID        uint64 `json:"member_id"`
	TerminalID      uint64 `json:"terminal_id"`
	TimePackageID   uint64 `json:"time_package_id,omitempty"`
	DurationMinutes *int   `json:"duration_minutes"`
	TotalCost       string `json:"total_cost"`
	IsHappyHour     bool   `json:"is_happy_hour"`
	Balance         string `json:"balance"`
}

// SessionEnded is published after a session end commits.
type SessionEnded struct {
	SessionID  uint64 `json:"session_id"`
	MemberID   uint64 `json:"member_id"`
	TerminalID uint64 `json:"terminal_id"`
	StartedAt  string `json:"started_at"`
	EndedAt    string `json:"ended_at"`
	TotalCost  string `json:"total_cost"`
}

// MemberToppedUp is published after a top-up commits.
type MemberToppedUp struct {
	MemberID uint64 `json:"member_id"`
	Amount   string `json:"amount"`
	Balance  string `json:"balance"`
}
