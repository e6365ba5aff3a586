package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/terraincognita07/cyclecast/internal/cycle"
	"github.com/terraincognita07/cyclecast/internal/models"
)

var (
	ErrCycleDataMissing = errors.New("cycle data missing")
	ErrRolloverConflict = errors.New("cycle rollover conflict")
)

type CycleUserRepository interface {
	FindByID(userID uint) (models.User, error)
	FindOwner() (models.User, error)
	RollOverPeriod(userID uint, previousStart time.Time, nextStart time.Time) (bool, error)
}

type CycleService struct {
	users         CycleUserRepository
	forecastCount int
}

func NewCycleService(users CycleUserRepository, forecastCount int) *CycleService {
	if forecastCount <= 0 {
		forecastCount = cycle.DefaultForecastCount
	}
	return &CycleService{users: users, forecastCount: forecastCount}
}

func (service *CycleService) ForecastCount() int {
	return service.forecastCount
}

// ParametersForUser rebuilds engine parameters from the stored cycle record.
func ParametersForUser(user *models.User) (cycle.Parameters, error) {
	if !user.HasCycleData() {
		return cycle.Parameters{}, ErrCycleDataMissing
	}
	return cycle.FromDates(cycle.DateOf(*user.LastPeriodStart), normalizedEnd(user.LastPeriodEnd), user.PeriodLength, user.CycleLength)
}

func normalizedEnd(end *time.Time) *time.Time {
	if end == nil || end.IsZero() {
		return nil
	}
	day := cycle.DateOf(*end)
	return &day
}

type CycleOverview struct {
	Today               time.Time             `json:"today"`
	Parameters          cycle.Input           `json:"parameters"`
	RolloverDue         bool                  `json:"rollover_due"`
	Phase               cycle.Phase           `json:"phase"`
	CycleDay            int                   `json:"cycle_day"`
	Fertility           cycle.Fertility       `json:"fertility"`
	NextPeriodStart     time.Time             `json:"next_period_start"`
	DaysUntilNextPeriod int                   `json:"days_until_next_period"`
	OvulationWindow     cycle.Window          `json:"ovulation_window"`
	FertilityWindow     cycle.Window          `json:"fertility_window"`
	Phases              []cycle.PhaseSpan     `json:"phases"`
	Forecast            []cycle.ForecastEntry `json:"forecast"`
	Flow                []cycle.FlowDay       `json:"flow"`
}

// Overview evaluates the user's cycle for today. A due rollover is applied to the
// returned view only; RolloverUser persists it.
func (service *CycleService) Overview(userID uint, today time.Time) (CycleOverview, error) {
	user, err := service.users.FindByID(userID)
	if err != nil {
		return CycleOverview{}, err
	}
	params, err := ParametersForUser(&user)
	if err != nil {
		return CycleOverview{}, err
	}

	current, due, err := ShouldRollover(params, today)
	if err != nil {
		return CycleOverview{}, err
	}
	overview, err := BuildCycleOverview(current, today, service.forecastCount)
	if err != nil {
		return CycleOverview{}, err
	}
	overview.RolloverDue = due
	return overview, nil
}

// OverviewForViewer shows owners their own cycle and partners the owner's cycle
// with fertility details removed.
func (service *CycleService) OverviewForViewer(viewer *models.User, today time.Time) (CycleOverview, error) {
	if IsOwnerUser(viewer) {
		return service.Overview(viewer.ID, today)
	}
	owner, err := service.users.FindOwner()
	if err != nil {
		return CycleOverview{}, ErrCycleDataMissing
	}
	overview, err := service.Overview(owner.ID, today)
	if err != nil {
		return CycleOverview{}, err
	}
	return SanitizeOverviewForViewer(viewer, overview), nil
}

// BuildCycleOverview evaluates params on today without any rollover.
func BuildCycleOverview(params cycle.Parameters, today time.Time, forecastCount int) (CycleOverview, error) {
	today = cycle.DateOf(today)

	phase, err := cycle.ClassifyPhase(today, params)
	if err != nil {
		return CycleOverview{}, err
	}
	cycleDay, err := cycle.CycleDay(today, params)
	if err != nil {
		return CycleOverview{}, err
	}
	fertility, err := cycle.EstimateFertility(today, params)
	if err != nil {
		return CycleOverview{}, err
	}
	// Evaluation-date classification holds the boundary day in luteal. Overview rolls
	// the anchor forward first, so only direct callers reach this.
	if phase != fertility.Phase {
		fertility = cycle.Fertility{Score: cycle.LutealScore, Band: cycle.BandVeryLow, Phase: phase}
	}
	ovulation, err := cycle.DeriveOvulationWindow(params)
	if err != nil {
		return CycleOverview{}, err
	}
	fertile, err := cycle.FertilityWindow(params)
	if err != nil {
		return CycleOverview{}, err
	}
	spans, err := cycle.Spans(params)
	if err != nil {
		return CycleOverview{}, err
	}
	forecast, err := cycle.ForecastCycles(params, forecastCount)
	if err != nil {
		return CycleOverview{}, err
	}

	next := params.NextPeriodStart()
	return CycleOverview{
		Today:               today,
		Parameters:          params.Input(),
		Phase:               phase,
		CycleDay:            cycleDay,
		Fertility:           fertility,
		NextPeriodStart:     next,
		DaysUntilNextPeriod: cycle.DaysBetween(today, next),
		OvulationWindow:     ovulation,
		FertilityWindow:     fertile,
		Phases:              spans,
		Forecast:            forecast,
		Flow:                cycle.FlowIntensity(params.PeriodLength()),
	}, nil
}

// RolloverUser advances the stored period start when today has reached the next
// predicted start. The update is conditional on the start the decision was made from.
func (service *CycleService) RolloverUser(userID uint, today time.Time) (models.User, bool, error) {
	user, err := service.users.FindByID(userID)
	if err != nil {
		return models.User{}, false, err
	}
	params, err := ParametersForUser(&user)
	if err != nil {
		return user, false, err
	}

	rolled, due, err := ShouldRollover(params, today)
	if err != nil || !due {
		return user, false, err
	}

	updated, err := service.users.RollOverPeriod(userID, params.PeriodStart(), rolled.PeriodStart())
	if err != nil {
		return user, false, fmt.Errorf("roll over period: %w", err)
	}
	if !updated {
		return user, false, ErrRolloverConflict
	}

	start := rolled.PeriodStart()
	user.LastPeriodStart = &start
	user.LastPeriodEnd = nil
	return user, true, nil
}
