package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/gamecafe-session-engine/internal/model"
)

// ErrManualOccupy is returned when an operator tries to set Occupied
// directly; only starting a session occupies a terminal.
var ErrManualOccupy = errors.New("terminal can only become Occupied by starting a session")

// ErrInvalidStatus is returned for a status outside the four known values.
var ErrInvalidStatus = errors.New("invalid terminal status")

// TerminalRepo persists terminals.
type TerminalRepo struct{ db *sql.DB }

func NewTerminalRepo(db *sql.DB) *TerminalRepo { return &TerminalRepo{db: db} }

const terminalColumns = `id, name, status, current_user_id, current_game, updated_at`

func scanTerminal(row interface{ Scan(...any) error }) (model.Terminal, error) {
	var (
		t    model.Terminal
		user sql.NullInt64
		game sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Status, &user, &game, &t.UpdatedAt); err != nil {
		return t, err
	}
	t.CurrentUserID = idPtr(user)
	if game.Valid {
		g := game.String
		t.CurrentGame = &g
	}
	return t, nil
}

// Create inserts an Available terminal and returns it.
func (r *TerminalRepo) Create(ctx context.Context, name string, now time.Time) (model.Terminal, error) {
	name = strings.TrimSpace(name)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO terminals (name, status, updated_at) VALUES (?, ?, ?)`,
		name, model.TerminalAvailable, now)
	if err != nil {
		if isDuplicate(err) {
			return model.Terminal{}, ErrTerminalName
		}
		return model.Terminal{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Terminal{}, err
	}
	return model.Terminal{ID: uint64(id), Name: name, Status: model.TerminalAvailable, UpdatedAt: now}, nil
}

// Rename changes a terminal's display name.
func (r *TerminalRepo) Rename(ctx context.Context, id uint64, name string, now time.Time) (model.Terminal, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE terminals SET name = ?, updated_at = ? WHERE id = ?`, strings.TrimSpace(name), now, id)
	if err != nil {
		if isDuplicate(err) {
			return model.Terminal{}, ErrTerminalName
		}
		return model.Terminal{}, err
	}
	if err := requireRow(res, ErrTerminalNotFound); err != nil {
		return model.Terminal{}, err
	}
	return r.GetByID(ctx, id)
}

// List returns all terminals ordered by id.
func (r *TerminalRepo) List(ctx context.Context) ([]model.Terminal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+terminalColumns+` FROM terminals ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Terminal{}
	for rows.Next() {
		t, err := scanTerminal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetByID fetches one terminal.
func (r *TerminalRepo) GetByID(ctx context.Context, id uint64) (model.Terminal, error) {
	return r.get(ctx, r.db, id)
}

// GetByIDTx is GetByID inside tx.
func (r *TerminalRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Terminal, error) {
	return r.get(ctx, tx, id)
}

func (r *TerminalRepo) get(ctx context.Context, q DBTX, id uint64) (model.Terminal, error) {
	t, err := scanTerminal(q.QueryRowContext(ctx, `SELECT `+terminalColumns+` FROM terminals WHERE id = ?`, id))
	return t, notFound(err, ErrTerminalNotFound)
}

// UpdateStatus sets an operator-controlled status. Occupied is rejected:
// only starting a session occupies a terminal. A terminal with an active
// session may be forced to Maintenance or Offline but not back to
// Available, which would hide that session.
func (r *TerminalRepo) UpdateStatus(ctx context.Context, id uint64, status string, now time.Time) (model.Terminal, error) {
	if !model.ValidTerminalStatus(status) {
		return model.Terminal{}, ErrInvalidStatus
	}
	if status == model.TerminalOccupied {
		return model.Terminal{}, ErrManualOccupy
	}
	q := `UPDATE terminals SET status = ?, updated_at = ? WHERE id = ?`
	args := []any{status, now, id}
	if status == model.TerminalAvailable {
		q += ` AND status <> ? AND NOT EXISTS (SELECT 1 FROM sessions WHERE terminal_id = ? AND status = ?)`
		args = append(args, model.TerminalOccupied, id, string(model.SessionActive))
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return model.Terminal{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Terminal{}, err
	}
	t, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Terminal{}, err
	}
	if n == 0 && status == model.TerminalAvailable {
		busy, err := r.hasActiveSession(ctx, id)
		if err != nil {
			return model.Terminal{}, err
		}
		if busy || t.Status == model.TerminalOccupied {
			return model.Terminal{}, ErrTerminalBusy
		}
	}
	return t, nil
}

func (r *TerminalRepo) hasActiveSession(ctx context.Context, id uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE terminal_id = ? AND status = ?`, id, string(model.SessionActive)).Scan(&n)
	return n > 0, err
}

// SetGame records what is being played on the terminal. A nil or blank
// game clears it.
func (r *TerminalRepo) SetGame(ctx context.Context, id uint64, game *string, now time.Time) (model.Terminal, error) {
	var v any
	if game != nil && strings.TrimSpace(*game) != "" {
		v = strings.TrimSpace(*game)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE terminals SET current_game = ?, updated_at = ? WHERE id = ?`, v, now, id)
	if err != nil {
		return model.Terminal{}, err
	}
	if err := requireRow(res, ErrTerminalNotFound); err != nil {
		return model.Terminal{}, err
	}
	return r.GetByID(ctx, id)
}

// OccupyTx flips an Available terminal to Occupied by memberID. It fails
// with ErrTerminalBusy when another writer got there first.
func (r *TerminalRepo) OccupyTx(ctx context.Context, tx *sql.Tx, id, memberID uint64, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE terminals SET status = ?, current_user_id = ?, updated_at = ? WHERE id = ? AND status = ?`,
		model.TerminalOccupied, memberID, now, id, model.TerminalAvailable)
	if err != nil {
		return err
	}
	return requireRow(res, ErrTerminalBusy)
}

// ReleaseTx clears memberID from the terminal. The status goes back to
// Available only while it is still Occupied; an operator who moved the
// terminal to Maintenance or Offline in the meantime keeps that status.
func (r *TerminalRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, id, memberID uint64, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE terminals
		 SET status = CASE WHEN status = ? THEN ? ELSE status END,
		     current_user_id = NULL, current_game = NULL, updated_at = ?
		 WHERE id = ? AND current_user_id = ?`,
		model.TerminalOccupied, model.TerminalAvailable, now, id, memberID)
	return err
}
