// Package model holds the persisted entities. Trailing field comments name
// the backing column.
package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Member tiers. The tier is informational in the accounting core; it is
// surfaced to kiosks and the admin dashboard.
const (
	TierBronze   = "Bronze"
	TierSilver   = "Silver"
	TierGold     = "Gold"
	TierPlatinum = "Platinum"
)

// Account roles carried in the JWT "role" claim.
const (
	RoleMember = "MEMBER"
	RoleAdmin  = "ADMIN"
)

// ValidTier reports whether t is one of the four member tiers.
func ValidTier(t string) bool {
	switch t {
	case TierBronze, TierSilver, TierGold, TierPlatinum:
		return true
	}
	return false
}

// Member represents a café customer account as stored in the `members`
// table. Balance is a fixed-point currency amount; Points is the loyalty
// counter.
//
// Fields:
//
//	ID           – primary key identifier.
//	Username     – unique login name.
//	PasswordHash – bcrypt hash, never serialized.
//	Role         – MEMBER or ADMIN.
//	Tier         – Bronze, Silver, Gold or Platinum.
//	Balance      – prepaid balance (DECIMAL(10,2)).
//	Points       – loyalty points.
type Member struct {
	ID           uint64          // members.id
	Username     string          // members.username
	PasswordHash string          // members.password_hash
	Role         string          // members.role
	Tier         string          // members.tier
	Balance      decimal.Decimal // members.balance
	Points       int64           // members.points
	CreatedAt    time.Time       // members.created_at
	UpdatedAt    time.Time       // members.updated_at
}

// MarshalJSON renders the member for API responses with the balance as a
// two-decimal string.
func (m Member) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        uint64    `json:"id"`
		Username  string    `json:"username"`
		Role      string    `json:"role"`
		Tier      string    `json:"tier"`
		Balance   string    `json:"balance"`
		Points    int64     `json:"points"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}{m.ID, m.Username, m.Role, m.Tier, m.Balance.StringFixed(2), m.Points, m.CreatedAt, m.UpdatedAt})
}
