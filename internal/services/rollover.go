package services

import (
	"time"

	"github.com/terraincognita07/cyclecast/internal/cycle"
)

// ShouldRollover reports whether today has reached the predicted next period start.
// When it has, the returned parameters are anchored at the latest projected start
// on or before today, keeping both lengths and dropping any explicit end.
func ShouldRollover(params cycle.Parameters, today time.Time) (cycle.Parameters, bool, error) {
	today = cycle.DateOf(today)
	if today.Before(params.NextPeriodStart()) {
		return params, false, nil
	}

	elapsed := cycle.DaysBetween(params.PeriodStart(), today)
	completed := elapsed / params.CycleLength()
	nextStart := params.PeriodStart().AddDate(0, 0, completed*params.CycleLength())

	rolled, err := cycle.FromDates(nextStart, nil, params.PeriodLength(), params.CycleLength())
	if err != nil {
		return params, false, err
	}
	return rolled, true, nil
}
