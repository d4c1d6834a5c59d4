package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// TimePackage is a purchasable bundle of play time at a fixed price. It
// seeds a session's provisional cost and nominal duration.
type TimePackage struct {
	ID              uint64          // time_packages.id
	Name            string          // time_packages.name
	DurationHours   int             // time_packages.duration_hours
	DurationMinutes int             // time_packages.duration_minutes
	Price           decimal.Decimal // time_packages.price
	IsActive        bool            // time_packages.is_active
}

// TotalMinutes returns the package duration expressed in minutes.
func (p TimePackage) TotalMinutes() int {
	return p.DurationHours*60 + p.DurationMinutes
}

func (p TimePackage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID              uint64 `json:"id"`
		Name            string `json:"name"`
		DurationHours   int    `json:"durationHours"`
		DurationMinutes int    `json:"durationMinutes"`
		Price           string `json:"price"`
		IsActive        bool   `json:"isActive"`
	}{p.ID, p.Name, p.DurationHours, p.DurationMinutes, p.Price.StringFixed(2), p.IsActive})
}
