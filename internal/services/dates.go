package services

import (
	"time"

	"github.com/terraincognita07/cyclecast/internal/cycle"
)

// DateAtLocation truncates value to midnight of its calendar day in location.
func DateAtLocation(value time.Time, location *time.Location) time.Time {
	if location == nil {
		location = time.UTC
	}
	localized := value.In(location)
	year, month, day := localized.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, location)
}

// CalendarToday converts an instant into the engine's calendar date as seen in location.
func CalendarToday(now time.Time, location *time.Location) time.Time {
	return cycle.DateOf(DateAtLocation(now, location))
}
