package cycle

import (
	"fmt"
	"time"
)

type Phase string

const (
	PhaseMenstruation Phase = "menstruation"
	PhaseFollicular   Phase = "follicular"
	PhaseOvulation    Phase = "ovulation"
	PhaseLuteal       Phase = "luteal"
)

// MaxHorizonCycles bounds how many cycles away from the anchoring one a date may sit.
const MaxHorizonCycles = 2

// PhaseSpan is one contiguous phase inside a single cycle.
type PhaseSpan struct {
	Phase Phase     `json:"phase"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (span PhaseSpan) contains(day time.Time) bool {
	return betweenInclusive(day, span.Start, span.End)
}

// Spans lists the phases of the anchoring cycle in order. An empty follicular phase is omitted.
func Spans(params Parameters) ([]PhaseSpan, error) {
	ovulation, err := DeriveOvulationWindow(params)
	if err != nil {
		return nil, err
	}

	spans := make([]PhaseSpan, 0, 4)
	spans = append(spans, PhaseSpan{Phase: PhaseMenstruation, Start: params.periodStart, End: params.periodEnd})

	follicularStart := addDays(params.periodEnd, 1)
	follicularEnd := addDays(ovulation.Start, -1)
	if !follicularStart.After(follicularEnd) {
		spans = append(spans, PhaseSpan{Phase: PhaseFollicular, Start: follicularStart, End: follicularEnd})
	}

	spans = append(spans,
		PhaseSpan{Phase: PhaseOvulation, Start: ovulation.Start, End: ovulation.End},
		PhaseSpan{Phase: PhaseLuteal, Start: addDays(ovulation.End, 1), End: addDays(params.NextPeriodStart(), -1)},
	)
	return spans, nil
}

// PhaseAt classifies day on the calendar. The next period start already belongs to the
// following cycle's menstruation.
func PhaseAt(day time.Time, params Parameters) (Phase, error) {
	projected, err := projectedCycle(day, params)
	if err != nil {
		return "", err
	}
	spans, err := Spans(projected)
	if err != nil {
		return "", err
	}
	return matchPhase(DateOf(day), spans), nil
}

// ClassifyPhase classifies the evaluation date. On the predicted next period start it stays
// luteal until the caller rolls the parameters over.
func ClassifyPhase(day time.Time, params Parameters) (Phase, error) {
	if params.valid() && DateOf(day).Equal(params.NextPeriodStart()) {
		return PhaseLuteal, nil
	}
	return PhaseAt(day, params)
}

// CycleDay returns the 1-based position of day within the cycle that contains it.
func CycleDay(day time.Time, params Parameters) (int, error) {
	projected, err := projectedCycle(day, params)
	if err != nil {
		return 0, err
	}
	return DaysBetween(projected.periodStart, day) + 1, nil
}

func projectedCycle(day time.Time, params Parameters) (Parameters, error) {
	if !params.valid() {
		return Parameters{}, fmt.Errorf("%w: parameters not initialised", ErrInvalidParameters)
	}
	index := floorDiv(DaysBetween(params.periodStart, day), params.cycleLength)
	if index < -MaxHorizonCycles || index > MaxHorizonCycles {
		return Parameters{}, fmt.Errorf(
			"%w: %s is %d cycles from period start %s",
			ErrOutOfRangeDate,
			FormatDate(DateOf(day)),
			index,
			FormatDate(params.periodStart),
		)
	}
	return params.shifted(index), nil
}

func matchPhase(day time.Time, spans []PhaseSpan) Phase {
	for _, span := range spans {
		if span.contains(day) {
			return span.Phase
		}
	}
	return nearestPhase(day, spans)
}

// nearestPhase resolves a day no span contains to the span whose boundary is closest.
// Ties go to the earlier span.
func nearestPhase(day time.Time, spans []PhaseSpan) Phase {
	best := Phase("")
	bestDistance := 0
	for _, span := range spans {
		distance := absInt(DaysBetween(day, span.Start))
		if toEnd := absInt(DaysBetween(day, span.End)); toEnd < distance {
			distance = toEnd
		}
		if best == "" || distance < bestDistance {
			best = span.Phase
			bestDistance = distance
		}
	}
	return best
}

func absInt(value int) int {
	if value < 0 {
		return -value
	}
	return value
}
