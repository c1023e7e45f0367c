package application

import "time"

// Business dates follow the Mexico cohort's clock (UTC-6, no DST handling in
// the upstream process either).
const businessDayOffset = -6 * time.Hour

const DateLayout = "2006-01-02"

// BusinessToday is today's date in business-local time.
func BusinessToday(now time.Time) string {
	return now.UTC().Add(businessDayOffset).Format(DateLayout)
}

func ValidDate(date string) bool {
	parsed, err := time.Parse(DateLayout, date)
	return err == nil && parsed.Format(DateLayout) == date
}

// ShiftDate moves an ISO date by deltaDays. Callers validate first.
func ShiftDate(date string, deltaDays int) string {
	parsed, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return parsed.AddDate(0, 0, deltaDays).Format(DateLayout)
}

// DateWindow lists length consecutive dates ending at baseDate, oldest first.
func DateWindow(baseDate string, length int) []string {
	window := make([]string, 0, length)
	for i := length - 1; i >= 0; i-- {
		window = append(window, ShiftDate(baseDate, -i))
	}
	return window
}
