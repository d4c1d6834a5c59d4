package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/gamecafe-session-engine/internal/model"
)

// TimePackageRepo persists purchasable time packages.
type TimePackageRepo struct{ db *sql.DB }

func NewTimePackageRepo(db *sql.DB) *TimePackageRepo { return &TimePackageRepo{db: db} }

const packageColumns = `id, name, duration_hours, duration_minutes, price, is_active`

func scanPackage(row interface{ Scan(...any) error }) (model.TimePackage, error) {
	var p model.TimePackage
	err := row.Scan(&p.ID, &p.Name, &p.DurationHours, &p.DurationMinutes, &p.Price, &p.IsActive)
	return p, err
}

// Create inserts a package and returns it with its id.
func (r *TimePackageRepo) Create(ctx context.Context, p model.TimePackage) (model.TimePackage, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Price = p.Price.Round(2)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO time_packages (name, duration_hours, duration_minutes, price, is_active) VALUES (?, ?, ?, ?, ?)`,
		p.Name, p.DurationHours, p.DurationMinutes, p.Price, p.IsActive)
	if err != nil {
		return model.TimePackage{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.TimePackage{}, err
	}
	p.ID = uint64(id)
	return p, nil
}

// Update overwrites every field of an existing package.
func (r *TimePackageRepo) Update(ctx context.Context, p model.TimePackage) (model.TimePackage, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Price = p.Price.Round(2)
	if _, err := r.GetByID(ctx, p.ID); err != nil {
		return model.TimePackage{}, err
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE time_packages SET name = ?, duration_hours = ?, duration_minutes = ?, price = ?, is_active = ? WHERE id = ?`,
		p.Name, p.DurationHours, p.DurationMinutes, p.Price, p.IsActive, p.ID)
	if err != nil {
		return model.TimePackage{}, err
	}
	return p, nil
}

// Delete removes a package. Past sessions keep their recorded cost.
func (r *TimePackageRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM time_packages WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrPackageNotFound)
}

// GetByID fetches one package, active or not.
func (r *TimePackageRepo) GetByID(ctx context.Context, id uint64) (model.TimePackage, error) {
	p, err := scanPackage(r.db.QueryRowContext(ctx, `SELECT `+packageColumns+` FROM time_packages WHERE id = ?`, id))
	return p, notFound(err, ErrPackageNotFound)
}

// List returns packages ordered by price; activeOnly hides retired ones.
func (r *TimePackageRepo) List(ctx context.Context, activeOnly bool) ([]model.TimePackage, error) {
	q := `SELECT ` + packageColumns + ` FROM time_packages`
	var args []any
	if activeOnly {
		q += ` WHERE is_active = ?`
		args = append(args, true)
	}
	q += ` ORDER BY price, id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.TimePackage{}
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
