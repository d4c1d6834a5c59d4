package model

import "time"

// Activity types written by the accounting core.
const (
	ActivityLogin  = "login"
	ActivityLogout = "logout"
	ActivityTopUp  = "topup"
)

// ActivityLog is an immutable audit entry for the activity feed.
type ActivityLog struct {
	ID        uint64    `json:"id"`        // activity_logs.id
	Type      string    `json:"type"`      // activity_logs.type
	UserID    *uint64   `json:"userId"`    // activity_logs.user_id (nullable)
	Message   string    `json:"message"`   // activity_logs.message
	CreatedAt time.Time `json:"createdAt"` // activity_logs.created_at
}
