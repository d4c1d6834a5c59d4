package repository

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so read helpers can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store bundles the repositories over one database handle. Use DB to begin
// transactions spanning several repositories.
type Store struct {
	DB            *sql.DB
	Members       *MemberRepo
	Terminals     *TerminalRepo
	Sessions      *SessionRepo
	Packages      *TimePackageRepo
	HappyHours    *HappyHourRepo
	Notifications *NotificationRepo
	Activity      *ActivityRepo
	Tokens        *TokenRepo
}

// NewStore wires every repository to db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		DB:            db,
		Members:       NewMemberRepo(db),
		Terminals:     NewTerminalRepo(db),
		Sessions:      NewSessionRepo(db),
		Packages:      NewTimePackageRepo(db),
		HappyHours:    NewHappyHourRepo(db),
		Notifications: NewNotificationRepo(db),
		Activity:      NewActivityRepo(db),
		Tokens:        NewTokenRepo(db),
	}
}

// InTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func nullableID(id *uint64) any {
	if id == nil {
		return nil
	}
	return *id
}

func idPtr(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	v := uint64(n.Int64)
	return &v
}
