package services

import (
	"errors"
	"strings"
	"time"

	"github.com/terraincognita07/cyclecast/internal/cycle"
)

var (
	ErrSettingsCycleLengthOutOfRange    = errors.New("settings cycle length out of range")
	ErrSettingsPeriodLengthOutOfRange   = errors.New("settings period length out of range")
	ErrSettingsPeriodLengthIncompatible = errors.New("settings period length incompatible with cycle length")
	ErrSettingsCycleStartDateInvalid    = errors.New("settings cycle start date invalid")
	ErrSettingsPeriodEndDateInvalid     = errors.New("settings period end date invalid")
)

type CycleSettingsValidationInput struct {
	CycleLength        int    `json:"cycle_length"`
	PeriodLength       int    `json:"period_length"`
	LastPeriodStartRaw string `json:"last_period_start"`
	LastPeriodEndRaw   string `json:"last_period_end,omitempty"`
}

type CycleSettingsUpdate struct {
	CycleLength     int
	PeriodLength    int
	LastPeriodStart time.Time
	LastPeriodEnd   *time.Time
	Parameters      cycle.Parameters
}

// ValidateCycleSettings checks an edit against the engine's parameter rules.
// The start date must fall within the last year and not after today.
func (service *SettingsService) ValidateCycleSettings(input CycleSettingsValidationInput, now time.Time, location *time.Location) (CycleSettingsUpdate, error) {
	if !cycle.IsValidCycleLength(input.CycleLength) {
		return CycleSettingsUpdate{}, ErrSettingsCycleLengthOutOfRange
	}
	if !cycle.IsValidPeriodLength(input.PeriodLength) {
		return CycleSettingsUpdate{}, ErrSettingsPeriodLengthOutOfRange
	}

	start, err := cycle.ParseDate(input.LastPeriodStartRaw)
	if err != nil {
		return CycleSettingsUpdate{}, ErrSettingsCycleStartDateInvalid
	}
	minStart, today := SettingsCycleStartDateBounds(now, location)
	if start.Before(minStart) || start.After(today) {
		return CycleSettingsUpdate{}, ErrSettingsCycleStartDateInvalid
	}

	var end *time.Time
	if raw := strings.TrimSpace(input.LastPeriodEndRaw); raw != "" {
		parsed, err := cycle.ParseDate(raw)
		if err != nil {
			return CycleSettingsUpdate{}, ErrSettingsPeriodEndDateInvalid
		}
		end = &parsed
	}

	params, err := cycle.FromDates(start, end, input.PeriodLength, input.CycleLength)
	if err != nil {
		return CycleSettingsUpdate{}, settingsErrorFromEngine(err, end != nil)
	}

	return CycleSettingsUpdate{
		CycleLength:     input.CycleLength,
		PeriodLength:    input.PeriodLength,
		LastPeriodStart: start,
		LastPeriodEnd:   end,
		Parameters:      params,
	}, nil
}

func settingsErrorFromEngine(err error, hasEnd bool) error {
	switch {
	case errors.Is(err, cycle.ErrDegenerateWindow):
		if hasEnd {
			return ErrSettingsPeriodEndDateInvalid
		}
		return ErrSettingsPeriodLengthIncompatible
	case hasEnd:
		return ErrSettingsPeriodEndDateInvalid
	default:
		return ErrSettingsPeriodLengthIncompatible
	}
}

// SettingsCycleStartDateBounds returns the earliest and latest accepted period start as calendar dates.
func SettingsCycleStartDateBounds(now time.Time, location *time.Location) (time.Time, time.Time) {
	today := CalendarToday(now, location)
	return today.AddDate(-1, 0, 0), today
}
