package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/terraincognita07/cyclecast/internal/cycle"
)

type cycleQueryInput struct {
	cycle.Input
	Date string `json:"date"`
	// Calendar switches phase classification to the forecast rule, where the next
	// period start already counts as menstruation.
	Calendar bool `json:"calendar"`
	Count    int  `json:"count"`
}

type phaseResponse struct {
	Date       string      `json:"date"`
	Phase      cycle.Phase `json:"phase"`
	PhaseLabel string      `json:"phase_label"`
	CycleDay   int         `json:"cycle_day"`
}

type fertilityResponse struct {
	Date       string      `json:"date"`
	Score      int         `json:"score"`
	Band       string      `json:"band"`
	BandLabel  string      `json:"band_label"`
	Phase      cycle.Phase `json:"phase"`
	PhaseLabel string      `json:"phase_label"`
}

type forecastResponse struct {
	Parameters cycle.Input           `json:"parameters"`
	Cycles     []cycle.ForecastEntry `json:"cycles"`
}

type flowDayResponse struct {
	cycle.FlowDay
	Label string `json:"label"`
}

// parseCycleQuery decodes the shared engine request body and builds parameters.
// Engine errors are returned untouched so respondError can map them.
func parseCycleQuery(c *fiber.Ctx) (cycleQueryInput, cycle.Parameters, error) {
	var input cycleQueryInput
	if err := c.BodyParser(&input); err != nil {
		return cycleQueryInput{}, cycle.Parameters{}, errInvalidBody
	}
	params, err := cycle.NewParameters(input.Input)
	if err != nil {
		return cycleQueryInput{}, cycle.Parameters{}, err
	}
	return input, params, nil
}

// queryDate parses the request date, defaulting to today.
func (handler *Handler) queryDate(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return handler.today(), nil
	}
	return cycle.ParseDate(raw)
}

func (handler *Handler) ClassifyPhase(c *fiber.Ctx) error {
	input, params, err := parseCycleQuery(c)
	if err != nil {
		return handler.respondInputError(c, err)
	}
	day, err := handler.queryDate(input.Date)
	if err != nil {
		return handler.respondError(c, err)
	}

	classify := cycle.ClassifyPhase
	if input.Calendar {
		classify = cycle.PhaseAt
	}
	phase, err := classify(day, params)
	if err != nil {
		return handler.respondError(c, err)
	}
	cycleDay, err := cycle.CycleDay(day, params)
	if err != nil {
		return handler.respondError(c, err)
	}

	return c.JSON(phaseResponse{
		Date:       cycle.FormatDate(day),
		Phase:      phase,
		PhaseLabel: handler.i18n.Label(currentLanguage(c), "phase", string(phase)),
		CycleDay:   cycleDay,
	})
}

func (handler *Handler) EstimateFertility(c *fiber.Ctx) error {
	input, params, err := parseCycleQuery(c)
	if err != nil {
		return handler.respondInputError(c, err)
	}
	day, err := handler.queryDate(input.Date)
	if err != nil {
		return handler.respondError(c, err)
	}

	fertility, err := cycle.EstimateFertility(day, params)
	if err != nil {
		return handler.respondError(c, err)
	}

	language := currentLanguage(c)
	return c.JSON(fertilityResponse{
		Date:       cycle.FormatDate(day),
		Score:      fertility.Score,
		Band:       fertility.Band,
		BandLabel:  handler.i18n.Label(language, "band", fertility.Band),
		Phase:      fertility.Phase,
		PhaseLabel: handler.i18n.Label(language, "phase", string(fertility.Phase)),
	})
}

func (handler *Handler) ForecastCycles(c *fiber.Ctx) error {
	input, params, err := parseCycleQuery(c)
	if err != nil {
		return handler.respondInputError(c, err)
	}

	count := input.Count
	if count == 0 {
		count = handler.forecastCount
	}
	entries, err := cycle.ForecastCycles(params, count)
	if err != nil {
		return handler.respondError(c, err)
	}
	return c.JSON(forecastResponse{Parameters: params.Input(), Cycles: entries})
}

func (handler *Handler) FlowIntensity(c *fiber.Ctx) error {
	raw := strings.TrimSpace(c.Query("period_length"))
	if raw == "" {
		return handler.apiError(c, fiber.StatusBadRequest, codeInvalidInput)
	}
	length, err := strconv.Atoi(raw)
	if err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, codeInvalidInput)
	}
	if !cycle.IsValidPeriodLength(length) {
		return handler.apiError(c, fiber.StatusUnprocessableEntity, codeInvalidParameters)
	}

	language := currentLanguage(c)
	curve := cycle.FlowIntensity(length)
	days := make([]flowDayResponse, 0, len(curve))
	for _, day := range curve {
		days = append(days, flowDayResponse{FlowDay: day, Label: handler.i18n.Label(language, "flow", day.Band)})
	}
	return c.JSON(fiber.Map{"period_length": length, "days": days})
}
