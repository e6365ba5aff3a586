package cycle

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// DateOf strips the clock and zone from value, keeping the calendar date it shows.
func DateOf(value time.Time) time.Time {
	year, month, day := value.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func ParseDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: date is required", ErrInvalidParameters)
	}
	parsed, err := time.Parse(DateLayout, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrInvalidParameters, trimmed)
	}
	return parsed, nil
}

func FormatDate(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Format(DateLayout)
}

// DaysBetween returns the whole-day distance from a to b (negative when b is earlier).
func DaysBetween(a time.Time, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

func addDays(value time.Time, days int) time.Time {
	return value.AddDate(0, 0, days)
}

func betweenInclusive(day time.Time, start time.Time, end time.Time) bool {
	return !day.Before(start) && !day.After(end)
}

// floorDiv rounds toward negative infinity so days before the anchor land in earlier cycles.
func floorDiv(a int, b int) int {
	quotient := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		quotient--
	}
	return quotient
}
