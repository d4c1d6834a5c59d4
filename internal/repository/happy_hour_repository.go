package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/iliyamo/gamecafe-session-engine/internal/model"
)

// HappyHourRepo persists discount windows. days_of_week is stored as a
// comma-separated list of weekday indexes.
type HappyHourRepo struct{ db *sql.DB }

func NewHappyHourRepo(db *sql.DB) *HappyHourRepo { return &HappyHourRepo{db: db} }

const happyHourColumns = `id, name, days_of_week, start_time, end_time, discount_percent, is_active`

func joinDays(days []int) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func splitDays(csv string) ([]int, error) {
	days := []int{}
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("days_of_week %q: %w", csv, err)
		}
		days = append(days, d)
	}
	return days, nil
}

func scanHappyHour(row interface{ Scan(...any) error }) (model.HappyHour, error) {
	var (
		h    model.HappyHour
		days string
	)
	if err := row.Scan(&h.ID, &h.Name, &days, &h.StartTime, &h.EndTime, &h.DiscountPercent, &h.IsActive); err != nil {
		return h, err
	}
	var err error
	h.DaysOfWeek, err = splitDays(days)
	return h, err
}

func (r *HappyHourRepo) query(ctx context.Context, db DBTX, q string, args ...any) ([]model.HappyHour, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.HappyHour{}
	for rows.Next() {
		h, err := scanHappyHour(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Create inserts a window. Callers validate it first.
func (r *HappyHourRepo) Create(ctx context.Context, h model.HappyHour) (model.HappyHour, error) {
	return r.create(ctx, r.db, h)
}

// CreateTx is Create inside tx.
func (r *HappyHourRepo) CreateTx(ctx context.Context, tx *sql.Tx, h model.HappyHour) (model.HappyHour, error) {
	return r.create(ctx, tx, h)
}

func (r *HappyHourRepo) create(ctx context.Context, db DBTX, h model.HappyHour) (model.HappyHour, error) {
	h.Name = strings.TrimSpace(h.Name)
	res, err := db.ExecContext(ctx,
		`INSERT INTO happy_hours (name, days_of_week, start_time, end_time, discount_percent, is_active) VALUES (?, ?, ?, ?, ?, ?)`,
		h.Name, joinDays(h.DaysOfWeek), h.StartTime, h.EndTime, h.DiscountPercent, h.IsActive)
	if err != nil {
		return model.HappyHour{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.HappyHour{}, err
	}
	h.ID = uint64(id)
	return h, nil
}

// Update overwrites an existing window.
func (r *HappyHourRepo) Update(ctx context.Context, h model.HappyHour) (model.HappyHour, error) {
	return r.update(ctx, r.db, h)
}

// UpdateTx is Update inside tx.
func (r *HappyHourRepo) UpdateTx(ctx context.Context, tx *sql.Tx, h model.HappyHour) (model.HappyHour, error) {
	return r.update(ctx, tx, h)
}

func (r *HappyHourRepo) update(ctx context.Context, db DBTX, h model.HappyHour) (model.HappyHour, error) {
	h.Name = strings.TrimSpace(h.Name)
	if _, err := r.get(ctx, db, h.ID); err != nil {
		return model.HappyHour{}, err
	}
	_, err := db.ExecContext(ctx,
		`UPDATE happy_hours SET name = ?, days_of_week = ?, start_time = ?, end_time = ?, discount_percent = ?, is_active = ? WHERE id = ?`,
		h.Name, joinDays(h.DaysOfWeek), h.StartTime, h.EndTime, h.DiscountPercent, h.IsActive, h.ID)
	if err != nil {
		return model.HappyHour{}, err
	}
	return h, nil
}

// Delete removes a window.
func (r *HappyHourRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM happy_hours WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrHappyHourNotFound)
}

// GetByID fetches one window.
func (r *HappyHourRepo) GetByID(ctx context.Context, id uint64) (model.HappyHour, error) {
	return r.get(ctx, r.db, id)
}

// GetByIDTx is GetByID inside tx.
func (r *HappyHourRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.HappyHour, error) {
	return r.get(ctx, tx, id)
}

func (r *HappyHourRepo) get(ctx context.Context, db DBTX, id uint64) (model.HappyHour, error) {
	h, err := scanHappyHour(db.QueryRowContext(ctx, `SELECT `+happyHourColumns+` FROM happy_hours WHERE id = ?`, id))
	return h, notFound(err, ErrHappyHourNotFound)
}

// List returns every window ordered by id.
func (r *HappyHourRepo) List(ctx context.Context) ([]model.HappyHour, error) {
	return r.query(ctx, r.db, `SELECT `+happyHourColumns+` FROM happy_hours ORDER BY id`)
}

// ListActive returns active windows ordered by id, which is the order the
// pricing calculator resolves them in.
func (r *HappyHourRepo) ListActive(ctx context.Context) ([]model.HappyHour, error) {
	return r.query(ctx, r.db, `SELECT `+happyHourColumns+` FROM happy_hours WHERE is_active = ? ORDER BY id`, true)
}

// ListActiveTx locks the window table for the rest of tx and returns the
// active windows, so an overlap check and the write that follows it see
// the same set.
func (r *HappyHourRepo) ListActiveTx(ctx context.Context, tx *sql.Tx) ([]model.HappyHour, error) {
	// no-op write; takes the row locks on MySQL and the write lock on SQLite
	if _, err := tx.ExecContext(ctx, `UPDATE happy_hours SET is_active = is_active`); err != nil {
		return nil, err
	}
	return r.query(ctx, tx, `SELECT `+happyHourColumns+` FROM happy_hours WHERE is_active = ? ORDER BY id`, true)
}
