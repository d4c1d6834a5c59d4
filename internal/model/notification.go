package model

import "time"

// Notification types.
const (
	NotificationLowBalance = "low_balance"
)

// Notification is an alert optionally addressed to a member.
type Notification struct {
	ID        uint64    `json:"id"`        // notifications.id
	MemberID  *uint64   `json:"memberId"`  // notifications.member_id (nullable)
	Type      string    `json:"type"`      // notifications.type
	Title     string    `json:"title"`     // notifications.title
	Message   string    `json:"message"`   // notifications.message
	IsRead    bool      `json:"isRead"`    // notifications.is_read
	CreatedAt time.Time `json:"createdAt"` // notifications.created_at
}
