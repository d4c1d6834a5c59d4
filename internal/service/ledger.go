package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/gamecafe-session-engine/internal/model"
	"github.com/iliyamo/gamecafe-session-engine/internal/queue"
)

// Ledger is the balance and points accounting over members.
type Ledger struct {
	Deps
}

func NewLedger(d Deps) *Ledger { return &Ledger{Deps: d.withDefaults()} }

// Credit adds amount to the member's balance.
func (l *Ledger) Credit(ctx context.Context, memberID uint64, amount decimal.Decimal) (model.Member, error) {
	if !amount.IsPositive() {
		return model.Member{}, ErrInvalidAmount
	}
	var m model.Member
	err := l.Store.InTx(ctx, func(tx *sql.Tx) error {
		var err error
		m, err = l.Store.Members.CreditTx(ctx, tx, memberID, amount.Round(2), l.stamp())
		return err
	})
	return m, err
}

// Debit subtracts amount unconditionally; the balance may go negative.
func (l *Ledger) Debit(ctx context.Context, memberID uint64, amount decimal.Decimal) (model.Member, error) {
	if !amount.IsPositive() {
		return model.Member{}, ErrInvalidAmount
	}
	var m model.Member
	err := l.Store.InTx(ctx, func(tx *sql.Tx) error {
		var err error
		m, err = l.Store.Members.DebitTx(ctx, tx, memberID, amount.Round(2), l.stamp())
		return err
	})
	return m, err
}

// EarnPoints adds loyalty points to a member.
func (l *Ledger) EarnPoints(ctx context.Context, memberID uint64, points int64) (model.Member, error) {
	if points <= 0 {
		return model.Member{}, ErrInvalidAmount
	}
	var m model.Member
	err := l.Store.InTx(ctx, func(tx *sql.Tx) error {
		if err := l.Store.Members.EarnPointsTx(ctx, tx, memberID, points, l.stamp()); err != nil {
			return err
		}
		var err error
		m, err = l.Store.Members.GetByIDTx(ctx, tx, memberID)
		return err
	})
	return m, err
}

// TopUp credits a member and records it in the activity feed.
func (l *Ledger) TopUp(ctx context.Context, memberID uint64, amount decimal.Decimal) (model.Member, error) {
	if !amount.IsPositive() {
		return model.Member{}, ErrInvalidAmount
	}
	amount = amount.Round(2)
	now := l.stamp()
	var m model.Member
	err := l.Store.InTx(ctx, func(tx *sql.Tx) error {
		var err error
		m, err = l.Store.Members.CreditTx(ctx, tx, memberID, amount, now)
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("%s topped up %s", m.Username, amount.StringFixed(2))
		_, err = l.Store.Activity.AppendTx(ctx, tx, model.ActivityTopUp, &m.ID, msg, now)
		return err
	})
	if err != nil {
		return model.Member{}, err
	}
	l.Logger.Info("balance topped up",
		zap.Uint64("member_id", m.ID),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("balance", m.Balance.StringFixed(2)))
	l.publish(ctx, queue.TypeMemberToppedUp, now, queue.MemberToppedUp{
		MemberID: m.ID,
		Amount:   amount.StringFixed(2),
		Balance:  m.Balance.StringFixed(2),
	})
	return m, nil
}
