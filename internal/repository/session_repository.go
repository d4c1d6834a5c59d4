package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/gamecafe-session-engine/internal/model"
)

// SessionRepo persists sessions. Rows are decoded into the closed
// model.SessionState variant; a row whose status and end_time disagree is
// reported as ErrCorruptSession rather than guessed at.
type SessionRepo struct{ db *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

const sessionColumns = `id, member_id, terminal_id, start_time, end_time, status, duration_minutes, total_cost`

func scanSession(row interface{ Scan(...any) error }) (model.Session, error) {
	var (
		s        model.Session
		start    time.Time
		end      sql.NullTime
		status   string
		duration sql.NullInt64
		cost     decimal.Decimal
	)
	if err := row.Scan(&s.ID, &s.MemberID, &s.TerminalID, &start, &end, &status, &duration, &cost); err != nil {
		return s, err
	}
	var dur *int
	if duration.Valid {
		d := int(duration.Int64)
		dur = &d
	}
	switch model.SessionStatus(status) {
	case model.SessionActive:
		if end.Valid {
			return s, fmt.Errorf("%w: session %d", ErrCorruptSession, s.ID)
		}
		s.State = model.Active{StartTime: start, DurationMinutes: dur, ProvisionalCost: cost}
	case model.SessionEnded:
		if !end.Valid {
			return s, fmt.Errorf("%w: session %d", ErrCorruptSession, s.ID)
		}
		s.State = model.Ended{StartTime: start, EndTime: end.Time, DurationMinutes: dur, FinalCost: cost}
	default:
		return s, fmt.Errorf("%w: session %d has status %q", ErrCorruptSession, s.ID, status)
	}
	return s, nil
}

func scanSessions(rows *sql.Rows) ([]model.Session, error) {
	defer rows.Close()
	out := []model.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CreateTx inserts an active session and returns it with its new id.
func (r *SessionRepo) CreateTx(ctx context.Context, tx *sql.Tx, memberID, terminalID uint64, state model.Active) (model.Session, error) {
	var dur any
	if state.DurationMinutes != nil {
		dur = *state.DurationMinutes
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (member_id, terminal_id, start_time, status, duration_minutes, total_cost)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		memberID, terminalID, state.StartTime, model.SessionActive, dur, state.ProvisionalCost.Round(2))
	if err != nil {
		return model.Session{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Session{}, err
	}
	return model.Session{ID: uint64(id), MemberID: memberID, TerminalID: terminalID, State: state}, nil
}

// GetByID fetches one session.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (model.Session, error) {
	return r.get(ctx, r.db, id)
}

// GetByIDTx is GetByID inside tx.
func (r *SessionRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Session, error) {
	return r.get(ctx, tx, id)
}

func (r *SessionRepo) get(ctx context.Context, q DBTX, id uint64) (model.Session, error) {
	s, err := scanSession(q.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	return s, notFound(err, ErrSessionNotFound)
}

// ActiveByTerminal returns the active session on a terminal, or
// ErrSessionNotFound when it is idle.
func (r *SessionRepo) ActiveByTerminal(ctx context.Context, terminalID uint64) (model.Session, error) {
	return r.activeByTerminal(ctx, r.db, terminalID)
}

// ActiveByTerminalTx is ActiveByTerminal inside tx.
func (r *SessionRepo) ActiveByTerminalTx(ctx context.Context, tx *sql.Tx, terminalID uint64) (model.Session, error) {
	return r.activeByTerminal(ctx, tx, terminalID)
}

func (r *SessionRepo) activeByTerminal(ctx context.Context, q DBTX, terminalID uint64) (model.Session, error) {
	s, err := scanSession(q.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE terminal_id = ? AND status = ? ORDER BY id DESC LIMIT 1`,
		terminalID, model.SessionActive))
	return s, notFound(err, ErrSessionNotFound)
}

// EndTx closes an active session. It reports false when the session was
// already ended (another request won the race); the row is then left as is.
func (r *SessionRepo) EndTx(ctx context.Context, tx *sql.Tx, id uint64, end time.Time, cost decimal.Decimal) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET status = ?, end_time = ?, total_cost = ? WHERE id = ? AND status = ?`,
		model.SessionEnded, end, cost.Round(2), id, model.SessionActive)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListActive returns every active session, oldest first.
func (r *SessionRepo) ListActive(ctx context.Context) ([]model.Session, error) {
	return r.List(ctx, model.SessionActive)
}

// List returns sessions filtered by status, or all sessions when status
// is empty. Active sessions are ordered oldest first, others newest first.
func (r *SessionRepo) List(ctx context.Context, status model.SessionStatus) ([]model.Session, error) {
	var (
		rows *sql.Rows
		err  error
	)
	switch status {
	case "":
		rows, err = r.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY id DESC`)
	case model.SessionActive:
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+sessionColumns+` FROM sessions WHERE status = ? ORDER BY start_time, id`, status)
	default:
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+sessionColumns+` FROM sessions WHERE status = ? ORDER BY id DESC`, status)
	}
	if err != nil {
		return nil, err
	}
	return scanSessions(rows)
}

// ListByMember returns a member's sessions, newest first.
func (r *SessionRepo) ListByMember(ctx context.Context, memberID uint64) ([]model.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE member_id = ? ORDER BY id DESC`, memberID)
	if err != nil {
		return nil, err
	}
	return scanSessions(rows)
}
