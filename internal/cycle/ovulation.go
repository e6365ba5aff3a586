package cycle

import (
	"fmt"
	"time"
)

const (
	LutealPhaseDays     = 14
	OvulationWindowDays = 3
	FertileDaysBefore   = 5
)

// Window is an inclusive range of calendar dates.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (window Window) Contains(day time.Time) bool {
	return betweenInclusive(DateOf(day), window.Start, window.End)
}

func (window Window) Days() int {
	return DaysBetween(window.Start, window.End) + 1
}

// DeriveOvulationWindow fixes the luteal phase at 14 days; the follicular phase absorbs
// any deviation from a 28-day cycle.
func DeriveOvulationWindow(params Parameters) (Window, error) {
	if !params.valid() {
		return Window{}, fmt.Errorf("%w: parameters not initialised", ErrInvalidParameters)
	}
	return deriveWindow(params.periodStart, params.periodEnd, params.cycleLength)
}

func deriveWindow(periodStart time.Time, periodEnd time.Time, cycleLength int) (Window, error) {
	nextPeriodStart := addDays(periodStart, cycleLength)
	end := addDays(nextPeriodStart, -LutealPhaseDays)
	start := addDays(end, -(OvulationWindowDays - 1))

	if !start.After(periodEnd) {
		return Window{}, fmt.Errorf(
			"%w: ovulation %s..%s overlaps period ending %s (cycle length %d)",
			ErrDegenerateWindow,
			FormatDate(start),
			FormatDate(end),
			FormatDate(periodEnd),
			cycleLength,
		)
	}
	if !end.Before(nextPeriodStart) {
		return Window{}, fmt.Errorf("%w: ovulation end %s not before next period %s", ErrDegenerateWindow, FormatDate(end), FormatDate(nextPeriodStart))
	}
	return Window{Start: start, End: end}, nil
}

// FertilityWindow spans five days before ovulation through its last day. On short cycles
// the start may fall inside the period.
func FertilityWindow(params Parameters) (Window, error) {
	ovulation, err := DeriveOvulationWindow(params)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: addDays(ovulation.Start, -FertileDaysBefore), End: ovulation.End}, nil
}

// FertilityWindows returns the fertility window of every cycle inside the projection
// horizon, oldest first.
func FertilityWindows(params Parameters) ([]Window, error) {
	if !params.valid() {
		return nil, fmt.Errorf("%w: parameters not initialised", ErrInvalidParameters)
	}
	windows := make([]Window, 0, 2*MaxHorizonCycles+1)
	for index := -MaxHorizonCycles; index <= MaxHorizonCycles; index++ {
		window, err := FertilityWindow(params.shifted(index))
		if err != nil {
			return nil, err
		}
		windows = append(windows, window)
	}
	return windows, nil
}
