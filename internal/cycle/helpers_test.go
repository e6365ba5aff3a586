package cycle

import (
	"testing"
	"time"
)

func mustParseDay(t *testing.T, raw string) time.Time {
	t.Helper()
	parsed, err := ParseDate(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return parsed
}

func mustParameters(t *testing.T, start string, periodLength int, cycleLength int) Parameters {
	t.Helper()
	params, err := NewParameters(Input{PeriodStart: start, PeriodLength: periodLength, CycleLength: cycleLength})
	if err != nil {
		t.Fatalf("NewParameters(%s, %d, %d): %v", start, periodLength, cycleLength, err)
	}
	return params
}

// validDomain yields every period/cycle length pair NewParameters accepts.
func validDomain(t *testing.T, start string) []Parameters {
	t.Helper()
	all := make([]Parameters, 0)
	for cycleLength := MinCycleLength; cycleLength <= MaxCycleLength; cycleLength++ {
		for periodLength := MinPeriodLength; periodLength <= MaxPeriodLength; periodLength++ {
			params, err := NewParameters(Input{PeriodStart: start, PeriodLength: periodLength, CycleLength: cycleLength})
			if err != nil {
				continue
			}
			all = append(all, params)
		}
	}
	if len(all) == 0 {
		t.Fatal("expected at least one valid parameter combination")
	}
	return all
}
