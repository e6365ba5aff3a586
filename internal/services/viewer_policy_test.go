package services

import (
	"testing"

	"github.com/terraincognita07/cyclecast/internal/cycle"
	"github.com/terraincognita07/cyclecast/internal/models"
)

func TestSanitizeOverviewForViewer(t *testing.T) {
	t.Parallel()

	params, err := cycle.FromDates(mustParseDay(t, "2024-01-01"), nil, 5, 28)
	if err != nil {
		t.Fatalf("build parameters: %v", err)
	}
	overview, err := BuildCycleOverview(params, mustParseDay(t, "2024-01-14"), 2)
	if err != nil {
		t.Fatalf("BuildCycleOverview() unexpected error: %v", err)
	}

	owner := &models.User{Role: models.RoleOwner}
	if got := SanitizeOverviewForViewer(owner, overview); got.Fertility.Score != 95 {
		t.Fatalf("expected owner to keep fertility score, got %d", got.Fertility.Score)
	}

	partner := &models.User{Role: models.RolePartner}
	got := SanitizeOverviewForViewer(partner, overview)
	if got.Fertility.Score != 0 || got.Fertility.Band != "" {
		t.Fatalf("expected partner fertility to be hidden, got %+v", got.Fertility)
	}
	if !got.FertilityWindow.Start.IsZero() || !got.OvulationWindow.Start.IsZero() {
		t.Fatalf("expected partner windows to be hidden")
	}
	if got.Phase != cycle.PhaseOvulation {
		t.Fatalf("expected phase to stay visible, got %q", got.Phase)
	}
	if len(got.Forecast) != 2 || !got.Forecast[1].FertilityWindowStart.IsZero() {
		t.Fatalf("expected forecast without fertility windows, got %+v", got.Forecast)
	}
	if !got.Forecast[1].PeriodStart.Equal(mustParseDay(t, "2024-01-29")) {
		t.Fatalf("expected period predictions to stay visible, got %s", got.Forecast[1].PeriodStart)
	}
	if overview.Forecast[1].FertilityWindowStart.IsZero() {
		t.Fatalf("expected original overview to be left untouched")
	}
}

func TestSanitizeOverviewForViewerDropsOvulationSpan(t *testing.T) {
	t.Parallel()

	params, err := cycle.FromDates(mustParseDay(t, "2024-01-01"), nil, 5, 28)
	if err != nil {
		t.Fatalf("build parameters: %v", err)
	}
	overview, err := BuildCycleOverview(params, mustParseDay(t, "2024-01-03"), 3)
	if err != nil {
		t.Fatalf("BuildCycleOverview() unexpected error: %v", err)
	}

	owner := SanitizeOverviewForViewer(&models.User{Role: models.RoleOwner}, overview)
	if len(owner.Phases) != 4 {
		t.Fatalf("expected owner to keep all phase spans, got %+v", owner.Phases)
	}

	got := SanitizeOverviewForViewer(&models.User{Role: models.RolePartner}, overview)
	for _, span := range got.Phases {
		if span.Phase != cycle.PhaseMenstruation {
			t.Fatalf("partner received %s span %s..%s", span.Phase, cycle.FormatDate(span.Start), cycle.FormatDate(span.End))
		}
	}
	if len(got.Phases) != 1 || cycle.FormatDate(got.Phases[0].End) != "2024-01-05" {
		t.Fatalf("expected the period span to stay visible, got %+v", got.Phases)
	}
	if len(overview.Phases) != 4 {
		t.Fatalf("expected original overview spans to be left untouched, got %d", len(overview.Phases))
	}
}
