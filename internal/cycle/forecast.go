package cycle

import (
	"fmt"
	"time"
)

const (
	DefaultForecastCount = 3
	MaxForecastCount     = 24
)

type ForecastEntry struct {
	PeriodStart          time.Time `json:"period_start"`
	PeriodEnd            time.Time `json:"period_end"`
	OvulationStart       time.Time `json:"ovulation_start"`
	OvulationEnd         time.Time `json:"ovulation_end"`
	FertilityWindowStart time.Time `json:"fertility_window_start"`
	FertilityWindowEnd   time.Time `json:"fertility_window_end"`
}

// ForecastCycles projects count consecutive cycles starting with the anchoring one.
// Entry i starts exactly i*cycleLength days after entry 0.
func ForecastCycles(params Parameters, count int) ([]ForecastEntry, error) {
	if !params.valid() {
		return nil, fmt.Errorf("%w: parameters not initialised", ErrInvalidParameters)
	}
	if count < 1 || count > MaxForecastCount {
		return nil, fmt.Errorf("%w: forecast count %d outside 1-%d", ErrInvalidParameters, count, MaxForecastCount)
	}

	entries := make([]ForecastEntry, 0, count)
	for index := 0; index < count; index++ {
		projected := params.shifted(index)
		ovulation, err := DeriveOvulationWindow(projected)
		if err != nil {
			return nil, fmt.Errorf("forecast cycle %d: %w", index, err)
		}
		fertility, err := FertilityWindow(projected)
		if err != nil {
			return nil, fmt.Errorf("forecast cycle %d: %w", index, err)
		}
		entries = append(entries, ForecastEntry{
			PeriodStart:          projected.periodStart,
			PeriodEnd:            projected.periodEnd,
			OvulationStart:       ovulation.Start,
			OvulationEnd:         ovulation.End,
			FertilityWindowStart: fertility.Start,
			FertilityWindowEnd:   fertility.End,
		})
	}
	return entries, nil
}
