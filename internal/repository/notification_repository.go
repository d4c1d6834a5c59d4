package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/gamecafe-session-engine/internal/model"
)

// NotificationRepo persists member alerts.
type NotificationRepo struct{ db *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

const notificationColumns = `id, member_id, type, title, message, is_read, created_at`

// CreateTx inserts an unread notification.
func (r *NotificationRepo) CreateTx(ctx context.Context, tx *sql.Tx, n model.Notification) (model.Notification, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO notifications (member_id, type, title, message, is_read, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		nullableID(n.MemberID), n.Type, n.Title, n.Message, false, n.CreatedAt)
	if err != nil {
		return model.Notification{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Notification{}, err
	}
	n.ID = uint64(id)
	n.IsRead = false
	return n, nil
}

// List returns notifications newest first. A nil memberID lists all.
func (r *NotificationRepo) List(ctx context.Context, memberID *uint64) ([]model.Notification, error) {
	q := `SELECT ` + notificationColumns + ` FROM notifications`
	var args []any
	if memberID != nil {
		q += ` WHERE member_id = ?`
		args = append(args, *memberID)
	}
	q += ` ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Notification{}
	for rows.Next() {
		var (
			n      model.Notification
			member sql.NullInt64
		)
		if err := rows.Scan(&n.ID, &member, &n.Type, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.MemberID = idPtr(member)
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flags a notification as read. With a non-nil memberID only that
// member's notification can be marked; anything else reads as not found.
func (r *NotificationRepo) MarkRead(ctx context.Context, id uint64, memberID *uint64) error {
	q := `UPDATE notifications SET is_read = ? WHERE id = ?`
	args := []any{true, id}
	if memberID != nil {
		q += ` AND member_id = ?`
		args = append(args, *memberID)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports 0 rows for an already read notification.
		var exists int
		row := r.db.QueryRowContext(ctx, `SELECT 1 FROM notifications WHERE id = ?`+ownerClause(memberID), args[1:]...)
		if err := row.Scan(&exists); err != nil {
			return notFound(err, ErrNotificationNotFound)
		}
	}
	return nil
}

func ownerClause(memberID *uint64) string {
	if memberID == nil {
		return ""
	}
	return ` AND member_id = ?`
}

// CountUnread returns how many unread notifications a member has.
func (r *NotificationRepo) CountUnread(ctx context.Context, memberID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE member_id = ? AND is_read = ?`, memberID, false).Scan(&n)
	return n, err
}
