package service

import (
	"context"
	"database/sql"

	"github.com/iliyamo/gamecafe-session-engine/internal/model"
	"github.com/iliyamo/gamecafe-session-engine/internal/pricing"
)

// HappyHours validates discount windows before they are stored so the
// calculator never sees a midnight-crossing or overlapping pair.
type HappyHours struct {
	Deps
}

func NewHappyHours(d Deps) *HappyHours { return &HappyHours{Deps: d.withDefaults()} }

func (h *HappyHours) checkTx(ctx context.Context, tx *sql.Tx, w model.HappyHour) error {
	if !w.IsActive {
		return nil
	}
	existing, err := h.Store.HappyHours.ListActiveTx(ctx, tx)
	if err != nil {
		return err
	}
	return pricing.CheckConflicts(w, existing)
}

// Create validates and stores a new window. The overlap check and the
// insert share one transaction.
func (h *HappyHours) Create(ctx context.Context, w model.HappyHour) (model.HappyHour, error) {
	w.ID = 0
	if err := pricing.ValidateWindow(w); err != nil {
		return model.HappyHour{}, err
	}
	var out model.HappyHour
	err := h.Store.InTx(ctx, func(tx *sql.Tx) error {
		if err := h.checkTx(ctx, tx, w); err != nil {
			return err
		}
		var err error
		out, err = h.Store.HappyHours.CreateTx(ctx, tx, w)
		return err
	})
	if err != nil {
		return model.HappyHour{}, err
	}
	return out, nil
}

// Update validates and overwrites window id.
func (h *HappyHours) Update(ctx context.Context, id uint64, w model.HappyHour) (model.HappyHour, error) {
	w.ID = id
	if err := pricing.ValidateWindow(w); err != nil {
		return model.HappyHour{}, err
	}
	var out model.HappyHour
	err := h.Store.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := h.Store.HappyHours.GetByIDTx(ctx, tx, id); err != nil {
			return err
		}
		if err := h.checkTx(ctx, tx, w); err != nil {
			return err
		}
		var err error
		out, err = h.Store.HappyHours.UpdateTx(ctx, tx, w)
		return err
	})
	if err != nil {
		return model.HappyHour{}, err
	}
	return out, nil
}

// Delete removes a window.
func (h *HappyHours) Delete(ctx context.Context, id uint64) error {
	return h.Store.HappyHours.Delete(ctx, id)
}

// List returns every window.
func (h *HappyHours) List(ctx context.Context) ([]model.HappyHour, error) {
	return h.Store.HappyHours.List(ctx)
}
