package cycle

import "time"

const (
	BandVeryLow = "very low"
	BandLow     = "low"
	BandMedium  = "moderate"
	BandHigh    = "high"
	BandPeak    = "peak fertility"
)

const (
	menstruationMaxScore = 5
	follicularMinScore   = 5
	follicularMaxScore   = 70
	preOvulationScore    = 80
	preOvulationDays     = 2
	LutealScore          = 5
)

// ovulationScores is indexed by the day offset from the ovulation window start.
var ovulationScores = [OvulationWindowDays]int{90, 95, 85}

type Fertility struct {
	Score int    `json:"score"`
	Band  string `json:"band"`
	Phase Phase  `json:"phase"`
}

// EstimateFertility scores day from 0 to 100. The curve never decreases from the period
// start to the day after ovulation begins and never increases after it.
func EstimateFertility(day time.Time, params Parameters) (Fertility, error) {
	projected, err := projectedCycle(day, params)
	if err != nil {
		return Fertility{}, err
	}
	spans, err := Spans(projected)
	if err != nil {
		return Fertility{}, err
	}

	date := DateOf(day)
	phase := matchPhase(date, spans)
	var span PhaseSpan
	for _, candidate := range spans {
		if candidate.Phase == phase {
			span = candidate
			break
		}
	}

	switch phase {
	case PhaseMenstruation:
		return Fertility{Score: rampScore(date, span, 0, menstruationMaxScore), Band: BandVeryLow, Phase: phase}, nil
	case PhaseFollicular:
		ovulationStart := addDays(span.End, 1)
		if DaysBetween(date, ovulationStart) <= preOvulationDays {
			return Fertility{Score: preOvulationScore, Band: BandHigh, Phase: phase}, nil
		}
		score := rampScore(date, span, follicularMinScore, follicularMaxScore)
		return Fertility{Score: score, Band: follicularBand(score), Phase: phase}, nil
	case PhaseOvulation:
		offset := DaysBetween(span.Start, date)
		return Fertility{Score: ovulationScores[offset], Band: BandPeak, Phase: phase}, nil
	default:
		return Fertility{Score: LutealScore, Band: BandVeryLow, Phase: phase}, nil
	}
}

// rampScore rises linearly from low on the span's first day to high on its last.
func rampScore(day time.Time, span PhaseSpan, low int, high int) int {
	length := DaysBetween(span.Start, span.End) + 1
	if length <= 1 {
		return low
	}
	position := DaysBetween(span.Start, day)
	return low + (high-low)*position/(length-1)
}

func follicularBand(score int) string {
	switch {
	case score <= 20:
		return BandLow
	case score <= 50:
		return BandMedium
	default:
		return BandHigh
	}
}
