// Package pricing resolves the happy hour in effect and applies its
// discount to base prices. It has no side effects; the current time comes
// from an injected Clock.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/gamecafe-session-engine/internal/model"
)

// Clock returns the current wall-clock time.
type Clock func() time.Time

// SystemClock reads the local wall clock. Happy-hour windows are expressed
// in local time, so it is not converted to UTC.
func SystemClock() time.Time { return time.Now() }

// ErrInvalidPrice is returned for negative base prices.
var ErrInvalidPrice = errors.New("price must be a non-negative amount")

// HappyHourSource lists the active happy hours ordered by id.
type HappyHourSource interface {
	ListActive(ctx context.Context) ([]model.HappyHour, error)
}

// Quote is the result of pricing a base amount.
type Quote struct {
	OriginalPrice   decimal.Decimal
	DiscountedPrice decimal.Decimal
	HappyHour       *model.HappyHour
	IsHappyHour     bool
}

// Calculator prices amounts against the configured happy hours.
type Calculator struct {
	hours HappyHourSource
	now   Clock
}

// NewCalculator returns a Calculator reading windows from src. A nil clock
// means SystemClock.
func NewCalculator(src HappyHourSource, now Clock) *Calculator {
	if now == nil {
		now = SystemClock
	}
	return &Calculator{hours: src, now: now}
}

// Current returns the happy hour in effect right now, or nil.
func (c *Calculator) Current(ctx context.Context) (*model.HappyHour, error) {
	hours, err := c.hours.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load happy hours: %w", err)
	}
	return Match(hours, c.now()), nil
}

// Calculate applies the current happy hour, if any, to basePrice.
func (c *Calculator) Calculate(ctx context.Context, basePrice decimal.Decimal) (Quote, error) {
	if basePrice.IsNegative() {
		return Quote{}, ErrInvalidPrice
	}
	hh, err := c.Current(ctx)
	if err != nil {
		return Quote{}, err
	}
	q := Quote{OriginalPrice: basePrice, DiscountedPrice: basePrice}
	if hh != nil {
		q.DiscountedPrice = Apply(basePrice, hh.DiscountPercent)
		q.HappyHour = hh
		q.IsHappyHour = true
	}
	return q, nil
}

// Match returns the first window in hours that covers now. The weekday
// index follows time.Weekday (0 = Sunday).
func Match(hours []model.HappyHour, now time.Time) *model.HappyHour {
	hhmm := now.Format("15:04")
	day := int(now.Weekday())
	for i := range hours {
		if hours[i].Covers(day, hhmm) {
			hh := hours[i]
			return &hh
		}
	}
	return nil
}

// Apply discounts price by percent and rounds to cents, half-up.
func Apply(price decimal.Decimal, percent int) decimal.Decimal {
	factor := decimal.NewFromInt(int64(100 - percent)).Div(decimal.NewFromInt(100))
	return price.Mul(factor).Round(2)
}
