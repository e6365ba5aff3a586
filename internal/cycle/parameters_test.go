package cycle

import (
	"errors"
	"testing"
)

func TestNewParametersDerivedDates(t *testing.T) {
	t.Parallel()

	params := mustParameters(t, "2024-01-01", 5, 28)

	if got := FormatDate(params.EffectivePeriodEnd()); got != "2024-01-05" {
		t.Fatalf("expected effective period end 2024-01-05, got %s", got)
	}
	if got := FormatDate(params.NextPeriodStart()); got != "2024-01-29" {
		t.Fatalf("expected next period start 2024-01-29, got %s", got)
	}
	if params.HasExplicitEnd() {
		t.Fatal("expected no explicit period end")
	}
}

func TestNewParametersExplicitEndTakesPrecedence(t *testing.T) {
	t.Parallel()

	params, err := NewParameters(Input{PeriodStart: "2024-01-01", PeriodLength: 5, CycleLength: 28, PeriodEnd: "2024-01-03"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := FormatDate(params.EffectivePeriodEnd()); got != "2024-01-03" {
		t.Fatalf("expected explicit end 2024-01-03, got %s", got)
	}
	if got := params.Input().PeriodEnd; got != "2024-01-03" {
		t.Fatalf("expected input round trip to keep period end, got %q", got)
	}
}

func TestNewParametersRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		input   Input
		wantErr error
	}{
		{name: "period longer than cycle", input: Input{PeriodStart: "2024-01-01", PeriodLength: 21, CycleLength: 20}, wantErr: ErrInvalidParameters},
		{name: "period length too short", input: Input{PeriodStart: "2024-01-01", PeriodLength: 1, CycleLength: 28}, wantErr: ErrInvalidParameters},
		{name: "period length too long", input: Input{PeriodStart: "2024-01-01", PeriodLength: 11, CycleLength: 28}, wantErr: ErrInvalidParameters},
		{name: "cycle length too short", input: Input{PeriodStart: "2024-01-01", PeriodLength: 5, CycleLength: 19}, wantErr: ErrInvalidParameters},
		{name: "cycle length too long", input: Input{PeriodStart: "2024-01-01", PeriodLength: 5, CycleLength: 37}, wantErr: ErrInvalidParameters},
		{name: "missing start", input: Input{PeriodLength: 5, CycleLength: 28}, wantErr: ErrInvalidParameters},
		{name: "malformed start", input: Input{PeriodStart: "01/01/2024", PeriodLength: 5, CycleLength: 28}, wantErr: ErrInvalidParameters},
		{name: "end before start", input: Input{PeriodStart: "2024-01-05", PeriodLength: 5, CycleLength: 28, PeriodEnd: "2024-01-04"}, wantErr: ErrInvalidParameters},
		{name: "end reaches next period", input: Input{PeriodStart: "2024-01-01", PeriodLength: 5, CycleLength: 28, PeriodEnd: "2024-01-29"}, wantErr: ErrInvalidParameters},
		{name: "short cycle long period", input: Input{PeriodStart: "2024-01-01", PeriodLength: 10, CycleLength: 20}, wantErr: ErrDegenerateWindow},
		{name: "explicit end overlapping ovulation", input: Input{PeriodStart: "2024-01-01", PeriodLength: 5, CycleLength: 28, PeriodEnd: "2024-01-13"}, wantErr: ErrDegenerateWindow},
	}

	for _, testCase := range cases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewParameters(testCase.input)
			if !errors.Is(err, testCase.wantErr) {
				t.Fatalf("expected %v, got %v", testCase.wantErr, err)
			}
		})
	}
}

func TestZeroParametersAreRejected(t *testing.T) {
	t.Parallel()

	var params Parameters
	if _, err := DeriveOvulationWindow(params); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters for zero parameters, got %v", err)
	}
	if _, err := PhaseAt(mustParseDay(t, "2024-01-01"), params); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters from PhaseAt, got %v", err)
	}
	if _, err := ForecastCycles(params, 1); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters from ForecastCycles, got %v", err)
	}
}
