package model

// HappyHour is a recurring weekly discount window. StartTime and EndTime
// are zero-padded local wall-clock "HH:MM" strings, so lexicographic order
// equals chronological order within one day. DaysOfWeek holds weekday
// indexes where 0 is Sunday.
type HappyHour struct {
	ID              uint64 `json:"id"`              // happy_hours.id
	Name            string `json:"name"`            // happy_hours.name
	DaysOfWeek      []int  `json:"daysOfWeek"`      // happy_hours.days_of_week (CSV)
	StartTime       string `json:"startTime"`       // happy_hours.start_time
	EndTime         string `json:"endTime"`         // happy_hours.end_time
	DiscountPercent int    `json:"discountPercent"` // happy_hours.discount_percent
	IsActive        bool   `json:"isActive"`        // happy_hours.is_active
}

// Covers reports whether the window applies on weekday at clock time hhmm.
// Both bounds are inclusive.
func (h HappyHour) Covers(weekday int, hhmm string) bool {
	if !h.IsActive || !h.OnDay(weekday) {
		return false
	}
	return h.StartTime <= hhmm && hhmm <= h.EndTime
}

// OnDay reports whether weekday is one of the window's days.
func (h HappyHour) OnDay(weekday int) bool {
	for _, d := range h.DaysOfWeek {
		if d == weekday {
			return true
		}
	}
	return false
}
