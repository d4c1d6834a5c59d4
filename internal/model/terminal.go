package model

import "time"

// Terminal statuses.
const (
	TerminalAvailable   = "Available"
	TerminalOccupied    = "Occupied"
	TerminalMaintenance = "Maintenance"
	TerminalOffline     = "Offline"
)

// ValidTerminalStatus reports whether s is one of the four terminal statuses.
func ValidTerminalStatus(s string) bool {
	switch s {
	case TerminalAvailable, TerminalOccupied, TerminalMaintenance, TerminalOffline:
		return true
	}
	return false
}

// Terminal is a customer-facing PC. CurrentUserID is a denormalized
// back-reference to the member of the active session on this terminal;
// the session row is the source of truth.
type Terminal struct {
	ID            uint64    `json:"id"`            // terminals.id
	Name          string    `json:"name"`          // terminals.name
	Status        string    `json:"status"`        // terminals.status
	CurrentUserID *uint64   `json:"currentUserId"` // terminals.current_user_id (nullable)
	CurrentGame   *string   `json:"currentGame"`   // terminals.current_game (nullable)
	UpdatedAt     time.Time `json:"updatedAt"`     // terminals.updated_at
}
