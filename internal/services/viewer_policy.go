package services

import (
	"github.com/terraincognita07/cyclecast/internal/cycle"
	"github.com/terraincognita07/cyclecast/internal/models"
)

func IsOwnerUser(user *models.User) bool {
	return user != nil && user.Role == models.RoleOwner
}

func IsPartnerUser(user *models.User) bool {
	return user != nil && user.Role == models.RolePartner
}

// SanitizeOverviewForViewer hides fertility details from partners. The current phase and
// period predictions stay visible; phase spans are cut down to the period.
func SanitizeOverviewForViewer(user *models.User, overview CycleOverview) CycleOverview {
	if !IsPartnerUser(user) {
		return overview
	}

	overview.Fertility = cycle.Fertility{Phase: overview.Phase}
	overview.OvulationWindow = cycle.Window{}
	overview.FertilityWindow = cycle.Window{}
	phases := make([]cycle.PhaseSpan, 0, 1)
	for _, span := range overview.Phases {
		if span.Phase == cycle.PhaseMenstruation {
			phases = append(phases, span)
		}
	}
	overview.Phases = phases
	forecast := make([]cycle.ForecastEntry, len(overview.Forecast))
	for index, entry := range overview.Forecast {
		forecast[index] = cycle.ForecastEntry{PeriodStart: entry.PeriodStart, PeriodEnd: entry.PeriodEnd}
	}
	overview.Forecast = forecast
	return overview
}
