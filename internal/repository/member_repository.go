package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/gamecafe-session-engine/internal/model"
)

// MemberRepo persists members and implements the ledger primitives. Every
// balance change is a single additive UPDATE so concurrent debits and
// credits from several terminals never lose updates.
type MemberRepo struct{ db *sql.DB }

func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

const memberColumns = `id, username, password_hash, role, tier, balance, points, created_at, updated_at`

func scanMember(row interface{ Scan(...any) error }) (model.Member, error) {
	var m model.Member
	err := row.Scan(&m.ID, &m.Username, &m.PasswordHash, &m.Role, &m.Tier, &m.Balance, &m.Points, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// Create inserts a member with a zero balance and returns its ID. The
// password must already be hashed.
func (r *MemberRepo) Create(ctx context.Context, username, passwordHash, role, tier string, now time.Time) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO members (username, password_hash, role, tier, balance, points, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		strings.TrimSpace(username), passwordHash, role, tier, decimal.Zero, now, now)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrUsernameTaken
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a member by id.
func (r *MemberRepo) GetByID(ctx context.Context, id uint64) (model.Member, error) {
	return r.get(ctx, r.db, id)
}

// GetByIDTx is GetByID inside tx.
func (r *MemberRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Member, error) {
	return r.get(ctx, tx, id)
}

func (r *MemberRepo) get(ctx context.Context, q DBTX, id uint64) (model.Member, error) {
	m, err := scanMember(q.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE id = ?`, id))
	return m, notFound(err, ErrMemberNotFound)
}

// GetByUsername fetches a member by its unique username.
func (r *MemberRepo) GetByUsername(ctx context.Context, username string) (model.Member, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE username = ? LIMIT 1`, strings.TrimSpace(username)))
	return m, notFound(err, ErrMemberNotFound)
}

// List returns all members ordered by username.
func (r *MemberRepo) List(ctx context.Context) ([]model.Member, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+memberColumns+` FROM members ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdateTier changes the member's tier.
func (r *MemberRepo) UpdateTier(ctx context.Context, id uint64, tier string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE members SET tier = ?, updated_at = ? WHERE id = ?`, tier, now, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrMemberNotFound)
}

// CreditTx adds amount to the balance and returns the updated member.
func (r *MemberRepo) CreditTx(ctx context.Context, tx *sql.Tx, id uint64, amount decimal.Decimal, now time.Time) (model.Member, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE members SET balance = ROUND(balance + ?, 2), updated_at = ? WHERE id = ?`, amount, now, id)
	if err != nil {
		return model.Member{}, err
	}
	if err := requireRow(res, ErrMemberNotFound); err != nil {
		return model.Member{}, err
	}
	return r.get(ctx, tx, id)
}

// DebitTx subtracts amount unconditionally. The resulting balance may be
// negative; callers that must not overdraw use DebitCoveredTx.
func (r *MemberRepo) DebitTx(ctx context.Context, tx *sql.Tx, id uint64, amount decimal.Decimal, now time.Time) (model.Member, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE members SET balance = ROUND(balance - ?, 2), updated_at = ? WHERE id = ?`, amount, now, id)
	if err != nil {
		return model.Member{}, err
	}
	if err := requireRow(res, ErrMemberNotFound); err != nil {
		return model.Member{}, err
	}
	return r.get(ctx, tx, id)
}

// DebitCoveredTx subtracts amount only if the balance covers it. The check
// and the write are one statement, so two terminals cannot both spend the
// same funds.
func (r *MemberRepo) DebitCoveredTx(ctx context.Context, tx *sql.Tx, id uint64, amount decimal.Decimal, now time.Time) (model.Member, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE members SET balance = ROUND(balance - ?, 2), updated_at = ? WHERE id = ? AND balance >= ?`, amount, now, id, amount)
	if err != nil {
		return model.Member{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Member{}, err
	}
	if n == 0 {
		if _, err := r.get(ctx, tx, id); err != nil {
			return model.Member{}, err
		}
		return model.Member{}, ErrInsufficientBalance
	}
	return r.get(ctx, tx, id)
}

// EarnPointsTx adds loyalty points.
func (r *MemberRepo) EarnPointsTx(ctx context.Context, tx *sql.Tx, id uint64, points int64, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE members SET points = points + ?, updated_at = ? WHERE id = ?`, points, now, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrMemberNotFound)
}

// requireRow returns missing when res touched no rows.
func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}
