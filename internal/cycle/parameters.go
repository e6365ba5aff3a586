package cycle

import (
	"fmt"
	"time"
)

const (
	MinPeriodLength = 2
	MaxPeriodLength = 10
	MinCycleLength  = 20
	MaxCycleLength  = 36

	DefaultPeriodLength = 5
	DefaultCycleLength  = 28
)

// Input is the plain record handed over by persistence and UI collaborators.
type Input struct {
	PeriodStart  string `json:"period_start"`
	PeriodLength int    `json:"period_length"`
	CycleLength  int    `json:"cycle_length"`
	PeriodEnd    string `json:"period_end,omitempty"`
}

// Parameters is the validated, immutable description of one cycle.
// The zero value is not usable; build it with NewParameters or FromDates.
type Parameters struct {
	periodStart  time.Time
	periodEnd    time.Time
	explicitEnd  bool
	periodLength int
	cycleLength  int
}

func NewParameters(input Input) (Parameters, error) {
	start, err := ParseDate(input.PeriodStart)
	if err != nil {
		return Parameters{}, fmt.Errorf("period start: %w", err)
	}

	var end *time.Time
	if input.PeriodEnd != "" {
		parsedEnd, err := ParseDate(input.PeriodEnd)
		if err != nil {
			return Parameters{}, fmt.Errorf("period end: %w", err)
		}
		end = &parsedEnd
	}

	return FromDates(start, end, input.PeriodLength, input.CycleLength)
}

// FromDates validates already-parsed values. periodEnd may be nil.
func FromDates(periodStart time.Time, periodEnd *time.Time, periodLength int, cycleLength int) (Parameters, error) {
	if periodStart.IsZero() {
		return Parameters{}, fmt.Errorf("%w: period start is required", ErrInvalidParameters)
	}
	if !IsValidPeriodLength(periodLength) {
		return Parameters{}, fmt.Errorf("%w: period length %d outside %d-%d", ErrInvalidParameters, periodLength, MinPeriodLength, MaxPeriodLength)
	}
	if !IsValidCycleLength(cycleLength) {
		return Parameters{}, fmt.Errorf("%w: cycle length %d outside %d-%d", ErrInvalidParameters, cycleLength, MinCycleLength, MaxCycleLength)
	}
	if cycleLength <= periodLength {
		return Parameters{}, fmt.Errorf("%w: cycle length %d must exceed period length %d", ErrInvalidParameters, cycleLength, periodLength)
	}

	params := Parameters{
		periodStart:  DateOf(periodStart),
		periodLength: periodLength,
		cycleLength:  cycleLength,
	}
	params.periodEnd = addDays(params.periodStart, periodLength-1)

	if periodEnd != nil && !periodEnd.IsZero() {
		end := DateOf(*periodEnd)
		if end.Before(params.periodStart) {
			return Parameters{}, fmt.Errorf("%w: period end %s before period start %s", ErrInvalidParameters, FormatDate(end), FormatDate(params.periodStart))
		}
		if !end.Before(params.NextPeriodStart()) {
			return Parameters{}, fmt.Errorf("%w: period end %s not before next period start %s", ErrInvalidParameters, FormatDate(end), FormatDate(params.NextPeriodStart()))
		}
		params.periodEnd = end
		params.explicitEnd = true
	}

	// Projected cycles fall back to the nominal length, so both shapes must hold a window.
	if _, err := deriveWindow(params.periodStart, addDays(params.periodStart, periodLength-1), cycleLength); err != nil {
		return Parameters{}, err
	}
	if _, err := DeriveOvulationWindow(params); err != nil {
		return Parameters{}, err
	}

	return params, nil
}

func IsValidPeriodLength(value int) bool {
	return value >= MinPeriodLength && value <= MaxPeriodLength
}

func IsValidCycleLength(value int) bool {
	return value >= MinCycleLength && value <= MaxCycleLength
}

func (params Parameters) PeriodStart() time.Time { return params.periodStart }

func (params Parameters) PeriodLength() int { return params.periodLength }

func (params Parameters) CycleLength() int { return params.cycleLength }

func (params Parameters) HasExplicitEnd() bool { return params.explicitEnd }

// EffectivePeriodEnd is the explicit end when one was supplied, else start + periodLength - 1.
func (params Parameters) EffectivePeriodEnd() time.Time { return params.periodEnd }

func (params Parameters) NextPeriodStart() time.Time {
	return addDays(params.periodStart, params.cycleLength)
}

// Input renders the parameters back into the collaborator record.
func (params Parameters) Input() Input {
	input := Input{
		PeriodStart:  FormatDate(params.periodStart),
		PeriodLength: params.periodLength,
		CycleLength:  params.cycleLength,
	}
	if params.explicitEnd {
		input.PeriodEnd = FormatDate(params.periodEnd)
	}
	return input
}

func (params Parameters) valid() bool {
	return !params.periodStart.IsZero() && params.cycleLength > 0
}

// shifted returns the projection of params onto the cycle index cycles away.
// Only the anchoring cycle keeps an explicit end.
func (params Parameters) shifted(index int) Parameters {
	if index == 0 {
		return params
	}
	start := addDays(params.periodStart, index*params.cycleLength)
	return Parameters{
		periodStart:  start,
		periodEnd:    addDays(start, params.periodLength-1),
		periodLength: params.periodLength,
		cycleLength:  params.cycleLength,
	}
}
