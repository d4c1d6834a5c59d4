package pricing

import (
	"errors"
	"fmt"

	"github.com/iliyamo/gamecafe-session-engine/internal/model"
)

// Write-time validation errors for happy-hour windows.
var (
	ErrInvalidClockTime      = errors.New("times must be zero-padded HH:MM")
	ErrWindowCrossesMidnight = errors.New("happy hour must start before it ends on the same day")
	ErrInvalidDays           = errors.New("daysOfWeek must list unique weekdays between 0 and 6")
	ErrInvalidDiscount       = errors.New("discountPercent must be between 0 and 100")
	ErrWindowOverlap         = errors.New("happy hour overlaps an existing active happy hour")
)

// ValidateWindow checks a happy hour before it is stored. Windows that
// wrap past midnight are rejected because resolution compares "HH:MM"
// strings within a single day.
func ValidateWindow(h model.HappyHour) error {
	if !validClock(h.StartTime) || !validClock(h.EndTime) {
		return ErrInvalidClockTime
	}
	if h.StartTime >= h.EndTime {
		return ErrWindowCrossesMidnight
	}
	if len(h.DaysOfWeek) == 0 {
		return ErrInvalidDays
	}
	seen := make(map[int]bool, len(h.DaysOfWeek))
	for _, d := range h.DaysOfWeek {
		if d < 0 || d > 6 || seen[d] {
			return ErrInvalidDays
		}
		seen[d] = true
	}
	if h.DiscountPercent < 0 || h.DiscountPercent > 100 {
		return ErrInvalidDiscount
	}
	return nil
}

// Overlaps reports whether a and b share a weekday and their inclusive
// time ranges intersect.
func Overlaps(a, b model.HappyHour) bool {
	shared := false
	for _, d := range a.DaysOfWeek {
		if b.OnDay(d) {
			shared = true
			break
		}
	}
	if !shared {
		return false
	}
	return a.StartTime <= b.EndTime && b.StartTime <= a.EndTime
}

// CheckConflicts returns ErrWindowOverlap if candidate is active and
// overlaps any other active window in existing. The candidate's own row,
// matched by id, is skipped so updates do not conflict with themselves.
func CheckConflicts(candidate model.HappyHour, existing []model.HappyHour) error {
	if !candidate.IsActive {
		return nil
	}
	for _, other := range existing {
		if other.ID == candidate.ID || !other.IsActive {
			continue
		}
		if Overlaps(candidate, other) {
			return fmt.Errorf("%w: %q", ErrWindowOverlap, other.Name)
		}
	}
	return nil
}

func validClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	hh := int(s[0]-'0')*10 + int(s[1]-'0')
	mm := int(s[3]-'0')*10 + int(s[4]-'0')
	return hh < 24 && mm < 60
}
