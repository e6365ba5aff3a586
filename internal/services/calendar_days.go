package services

import (
	"errors"
	"time"

	"github.com/terraincognita07/cyclecast/internal/cycle"
)

type CalendarDayState struct {
	Date           time.Time   `json:"-"`
	DateString     string      `json:"date"`
	Day            int         `json:"day"`
	InMonth        bool        `json:"in_month"`
	IsToday        bool        `json:"is_today"`
	InHorizon      bool        `json:"in_horizon"`
	Phase          cycle.Phase `json:"phase,omitempty"`
	FertilityScore int         `json:"fertility_score"`
	FertilityBand  string      `json:"fertility_band,omitempty"`
	IsPredicted    bool        `json:"is_predicted_period"`
	IsFertility    bool        `json:"is_fertile"`
	IsOvulation    bool        `json:"is_ovulation"`
}

// BuildCalendarDayStates lays out the Sunday-first grid covering monthStart's month.
// Days beyond the projection horizon carry no phase.
func BuildCalendarDayStates(monthStart time.Time, params cycle.Parameters, today time.Time) ([]CalendarDayState, error) {
	monthStart = cycle.DateOf(time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, time.UTC))
	monthEnd := monthStart.AddDate(0, 1, -1)
	gridStart := monthStart.AddDate(0, 0, -int(monthStart.Weekday()))
	gridEnd := monthEnd.AddDate(0, 0, 6-int(monthEnd.Weekday()))

	windows, err := cycle.FertilityWindows(params)
	if err != nil {
		return nil, err
	}
	fertilityMap := make(map[string]bool)
	for _, window := range windows {
		for day := window.Start; !day.After(window.End); day = day.AddDate(0, 0, 1) {
			fertilityMap[cycle.FormatDate(day)] = true
		}
	}

	todayKey := cycle.FormatDate(cycle.DateOf(today))
	nextStart := params.NextPeriodStart()

	days := make([]CalendarDayState, 0, 42)
	for day := gridStart; !day.After(gridEnd); day = day.AddDate(0, 0, 1) {
		key := cycle.FormatDate(day)
		state := CalendarDayState{
			Date:       day,
			DateString: key,
			Day:        day.Day(),
			InMonth:    day.Month() == monthStart.Month(),
			IsToday:    key == todayKey,
		}

		fertility, err := cycle.EstimateFertility(day, params)
		switch {
		case errors.Is(err, cycle.ErrOutOfRangeDate):
			days = append(days, state)
			continue
		case err != nil:
			return nil, err
		}

		state.InHorizon = true
		state.Phase = fertility.Phase
		state.FertilityScore = fertility.Score
		state.FertilityBand = fertility.Band
		state.IsPredicted = fertility.Phase == cycle.PhaseMenstruation && !day.Before(nextStart)
		state.IsOvulation = fertility.Phase == cycle.PhaseOvulation
		state.IsFertility = fertilityMap[key] && !state.IsOvulation
		days = append(days, state)
	}
	return days, nil
}

// CalendarMonth evaluates the stored cycle for the month containing month.
func (service *CycleService) CalendarMonth(userID uint, month time.Time, today time.Time) ([]CalendarDayState, error) {
	user, err := service.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	params, err := ParametersForUser(&user)
	if err != nil {
		return nil, err
	}
	return BuildCalendarDayStates(month, params, today)
}
