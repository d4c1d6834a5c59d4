package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/gamecafe-session-engine/internal/model"
)

// ActivityRepo appends to and reads the audit feed. There is no update or
// delete: entries are immutable once written.
type ActivityRepo struct{ db *sql.DB }

func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{db: db} }

// AppendTx writes one entry inside tx.
func (r *ActivityRepo) AppendTx(ctx context.Context, tx *sql.Tx, typ string, userID *uint64, message string, at time.Time) (model.ActivityLog, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO activity_logs (type, user_id, message, created_at) VALUES (?, ?, ?, ?)`,
		typ, nullableID(userID), message, at)
	if err != nil {
		return model.ActivityLog{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ActivityLog{}, err
	}
	return model.ActivityLog{ID: uint64(id), Type: typ, UserID: userID, Message: message, CreatedAt: at}, nil
}

// List returns the newest limit entries, newest first.
func (r *ActivityRepo) List(ctx context.Context, limit int) ([]model.ActivityLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, type, user_id, message, created_at FROM activity_logs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ActivityLog{}
	for rows.Next() {
		var (
			a    model.ActivityLog
			user sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &a.Type, &user, &a.Message, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.UserID = idPtr(user)
		out = append(out, a)
	}
	return out, rows.Err()
}
