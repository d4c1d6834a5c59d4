package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/gamecafe-session-engine/internal/model"
)

type staticHours struct {
	hours []model.HappyHour
	err   error
}

func (s staticHours) ListActive(context.Context) ([]model.HappyHour, error) { return s.hours, s.err }

func fixedClock(t time.Time) Clock { return func() time.Time { return t } }

// 2024-01-03 is a Wednesday.
func wednesdayAt(hour, minute int) time.Time {
	return time.Date(2024, time.January, 3, hour, minute, 0, 0, time.Local)
}

var weekdayAfternoon = model.HappyHour{
	ID:              1,
	Name:            "Afternoon",
	DaysOfWeek:      []int{1, 2, 3, 4, 5},
	StartTime:       "15:00",
	EndTime:         "17:00",
	DiscountPercent: 50,
	IsActive:        true,
}

func TestCalculate_InsideHappyHour(t *testing.T) {
	calc := NewCalculator(staticHours{hours: []model.HappyHour{weekdayAfternoon}}, fixedClock(wednesdayAt(16, 0)))

	q, err := calc.Calculate(context.Background(), decimal.RequireFromString("10.00"))
	require.NoError(t, err)

	assert.True(t, q.IsHappyHour)
	assert.Equal(t, "10.00", q.OriginalPrice.StringFixed(2))
	assert.Equal(t, "5.00", q.DiscountedPrice.StringFixed(2))
	require.NotNil(t, q.HappyHour)
	assert.Equal(t, "Afternoon", q.HappyHour.Name)
}

func TestCalculate_OutsideHappyHour(t *testing.T) {
	calc := NewCalculator(staticHours{hours: []model.HappyHour{weekdayAfternoon}}, fixedClock(wednesdayAt(18, 0)))

	q, err := calc.Calculate(context.Background(), decimal.RequireFromString("10.00"))
	require.NoError(t, err)

	assert.False(t, q.IsHappyHour)
	assert.Nil(t, q.HappyHour)
	assert.Equal(t, "10.00", q.DiscountedPrice.StringFixed(2))
}

func TestCalculate_BoundsAreInclusive(t *testing.T) {
	hours := staticHours{hours: []model.HappyHour{weekdayAfternoon}}
	for _, at := range []time.Time{wednesdayAt(15, 0), wednesdayAt(17, 0)} {
		q, err := NewCalculator(hours, fixedClock(at)).Calculate(context.Background(), decimal.NewFromInt(8))
		require.NoError(t, err)
		assert.True(t, q.IsHappyHour, "at %s", at.Format("15:04"))
		assert.Equal(t, "4.00", q.DiscountedPrice.StringFixed(2))
	}
}

func TestCalculate_WrongWeekday(t *testing.T) {
	sunday := time.Date(2024, time.January, 7, 16, 0, 0, 0, time.Local)
	calc := NewCalculator(staticHours{hours: []model.HappyHour{weekdayAfternoon}}, fixedClock(sunday))

	q, err := calc.Calculate(context.Background(), decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.False(t, q.IsHappyHour)
}

func TestCalculate_IgnoresInactiveWindows(t *testing.T) {
	off := weekdayAfternoon
	off.IsActive = false
	calc := NewCalculator(staticHours{hours: []model.HappyHour{off}}, fixedClock(wednesdayAt(16, 0)))

	q, err := calc.Calculate(context.Background(), decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.False(t, q.IsHappyHour)
}

func TestCalculate_FirstMatchWins(t *testing.T) {
	second := weekdayAfternoon
	second.ID = 2
	second.Name = "Second"
	second.DiscountPercent = 10
	calc := NewCalculator(staticHours{hours: []model.HappyHour{weekdayAfternoon, second}}, fixedClock(wednesdayAt(16, 30)))

	hh, err := calc.Current(context.Background())
	require.NoError(t, err)
	require.NotNil(t, hh)
	assert.Equal(t, uint64(1), hh.ID)
}

func TestCalculate_RejectsNegativePrice(t *testing.T) {
	calc := NewCalculator(staticHours{}, fixedClock(wednesdayAt(16, 0)))
	_, err := calc.Calculate(context.Background(), decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestCalculate_SourceError(t *testing.T) {
	boom := errors.New("db down")
	calc := NewCalculator(staticHours{err: boom}, fixedClock(wednesdayAt(16, 0)))
	_, err := calc.Calculate(context.Background(), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, boom)
}

func TestApply_RoundsHalfUp(t *testing.T) {
	tests := []struct {
		price   string
		percent int
		want    string
	}{
		{"10.00", 50, "5.00"},
		{"9.99", 15, "8.49"},
		{"0.05", 50, "0.03"},
		{"7.50", 0, "7.50"},
		{"7.50", 100, "0.00"},
	}
	for _, tt := range tests {
		got := Apply(decimal.RequireFromString(tt.price), tt.percent)
		assert.Equal(t, tt.want, got.StringFixed(2), "%s at %d%%", tt.price, tt.percent)
	}
}
