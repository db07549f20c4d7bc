package engine

import (
	"time"

	"github.com/oumpowerman/thaoshare/models"
)

// NextDueDate advances prev by one period. Monthly steps keep anchorDay as
// the day of month and clamp it to the last day of shorter months, so a
// circle started on the 31st is due Jan 31, Feb 28 (29), Mar 31.
// An anchorDay <= 0 falls back to prev's own day.
func NextDueDate(prev time.Time, period models.Period, anchorDay int) time.Time {
	switch period {
	case models.PeriodMonthly:
		if anchorDay <= 0 {
			anchorDay = prev.Day()
		}
		y, m, _ := prev.Date()
		h, mi, s := prev.Clock()
		first := time.Date(y, m+1, 1, h, mi, s, prev.Nanosecond(), prev.Location())
		day := anchorDay
		if last := daysIn(first.Year(), first.Month(), prev.Location()); day > last {
			day = last
		}
		return time.Date(first.Year(), first.Month(), day, h, mi, s, prev.Nanosecond(), prev.Location())
	case models.PeriodWeekly:
		return prev.AddDate(0, 0, 7)
	default:
		return prev.AddDate(0, 0, 1)
	}
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
