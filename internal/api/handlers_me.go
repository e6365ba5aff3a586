package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/terraincognita07/cyclecast/internal/cycle"
	"github.com/terraincognita07/cyclecast/internal/services"
)

type overviewResponse struct {
	services.CycleOverview
	PhaseLabel string `json:"phase_label"`
	BandLabel  string `json:"band_label,omitempty"`
}

type calendarResponse struct {
	Month string                      `json:"month"`
	Days  []services.CalendarDayState `json:"days"`
}

type telegramInput struct {
	ChatID int64 `json:"chat_id"`
}

func (handler *Handler) overviewResponse(c *fiber.Ctx, overview services.CycleOverview) overviewResponse {
	language := currentLanguage(c)
	return overviewResponse{
		CycleOverview: overview,
		PhaseLabel:    handler.i18n.Label(language, "phase", string(overview.Phase)),
		BandLabel:     handler.i18n.Label(language, "band", overview.Fertility.Band),
	}
}

func (handler *Handler) GetCycleOverview(c *fiber.Ctx) error {
	user, _ := currentUser(c)
	overview, err := handler.cycleService.OverviewForViewer(user, handler.today())
	if err != nil {
		return handler.respondError(c, err)
	}
	return c.JSON(handler.overviewResponse(c, overview))
}

func (handler *Handler) UpdateCycleSettings(c *fiber.Ctx) error {
	user, _ := currentUser(c)

	var input services.CycleSettingsValidationInput
	if err := c.BodyParser(&input); err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, codeInvalidInput)
	}

	update, err := handler.settingsService.ValidateCycleSettings(input, handler.now(), handler.location)
	if err != nil {
		return handler.respondError(c, err)
	}
	if err := handler.settingsService.SaveCycleSettings(user.ID, update); err != nil {
		return handler.respondError(c, err)
	}
	handler.logger.Info("cycle settings updated", zap.Uint("user_id", user.ID))

	overview, err := handler.cycleService.Overview(user.ID, handler.today())
	if err != nil {
		return handler.respondError(c, err)
	}
	return c.JSON(handler.overviewResponse(c, overview))
}

func (handler *Handler) RolloverCycle(c *fiber.Ctx) error {
	user, _ := currentUser(c)

	updated, rolled, err := handler.cycleService.RolloverUser(user.ID, handler.today())
	if err != nil {
		return handler.respondError(c, err)
	}
	params, err := services.ParametersForUser(&updated)
	if err != nil {
		return handler.respondError(c, err)
	}
	if rolled {
		handler.logger.Info("cycle rolled over", zap.Uint("user_id", user.ID), zap.String("period_start", cycle.FormatDate(params.PeriodStart())))
	}
	return c.JSON(fiber.Map{
		"rolled_over": rolled,
		"parameters":  params.Input(),
	})
}

func (handler *Handler) GetCalendar(c *fiber.Ctx) error {
	user, _ := currentUser(c)

	today := handler.today()
	month := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	if raw := strings.TrimSpace(c.Query("month")); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			return handler.apiError(c, fiber.StatusBadRequest, codeInvalidMonth)
		}
		month = parsed
	}

	days, err := handler.cycleService.CalendarMonth(user.ID, month, today)
	if err != nil {
		return handler.respondError(c, err)
	}
	return c.JSON(calendarResponse{Month: month.Format("2006-01"), Days: days})
}

func (handler *Handler) UpdateTelegramChat(c *fiber.Ctx) error {
	user, _ := currentUser(c)

	var input telegramInput
	if err := c.BodyParser(&input); err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, codeInvalidInput)
	}
	if err := handler.settingsService.UpdateTelegramChat(user.ID, input.ChatID); err != nil {
		return handler.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
