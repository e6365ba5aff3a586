package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/terraincognita07/cyclecast/internal/cycle"
	"github.com/terraincognita07/cyclecast/internal/services"
)

// Error codes double as i18n keys under "error.".
const (
	codeInvalidInput           = "invalid_input"
	codeInvalidParameters      = "invalid_parameters"
	codeDegenerateWindow       = "degenerate_window"
	codeOutOfRangeDate         = "out_of_range_date"
	codeUnauthorized           = "unauthorized"
	codeForbidden              = "forbidden"
	codeNotFound               = "not_found"
	codeInternal               = "internal"
	codeInvalidCredentials     = "invalid_credentials"
	codeInvalidLogin           = "invalid_login"
	codeTooManyAttempts        = "too_many_attempts"
	codeEmailExists            = "email_exists"
	codeWeakPassword           = "weak_password"
	codePasswordUnchanged      = "password_unchanged"
	codePasswordChangeRequired = "password_change_required"
	codeDisplayNameTooLong     = "display_name_too_long"
	codeCycleDataMissing       = "cycle_data_missing"
	codeCycleLength            = "cycle_length"
	codePeriodLength           = "period_length"
	codePeriodIncompatible     = "period_incompatible"
	codeCycleStart             = "cycle_start"
	codePeriodEnd              = "period_end"
	codeRolloverConflict       = "rollover_conflict"
	codeInvalidMonth           = "invalid_month"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var serviceErrorMappings = []errorMapping{
	{cycle.ErrInvalidParameters, fiber.StatusUnprocessableEntity, codeInvalidParameters},
	{cycle.ErrDegenerateWindow, fiber.StatusUnprocessableEntity, codeDegenerateWindow},
	{cycle.ErrOutOfRangeDate, fiber.StatusUnprocessableEntity, codeOutOfRangeDate},
	{services.ErrAuthCredentialsInvalid, fiber.StatusBadRequest, codeInvalidCredentials},
	{services.ErrAuthInvalidLogin, fiber.StatusUnauthorized, codeInvalidLogin},
	{services.ErrAuthEmailExists, fiber.StatusConflict, codeEmailExists},
	{services.ErrWeakPassword, fiber.StatusBadRequest, codeWeakPassword},
	{services.ErrAuthPasswordUnchanged, fiber.StatusBadRequest, codePasswordUnchanged},
	{services.ErrAuthDisplayNameTooLong, fiber.StatusBadRequest, codeDisplayNameTooLong},
	{services.ErrCycleDataMissing, fiber.StatusConflict, codeCycleDataMissing},
	{services.ErrSettingsCycleLengthOutOfRange, fiber.StatusUnprocessableEntity, codeCycleLength},
	{services.ErrSettingsPeriodLengthOutOfRange, fiber.StatusUnprocessableEntity, codePeriodLength},
	{services.ErrSettingsPeriodLengthIncompatible, fiber.StatusUnprocessableEntity, codePeriodIncompatible},
	{services.ErrSettingsCycleStartDateInvalid, fiber.StatusUnprocessableEntity, codeCycleStart},
	{services.ErrSettingsPeriodEndDateInvalid, fiber.StatusUnprocessableEntity, codePeriodEnd},
	{services.ErrRolloverConflict, fiber.StatusConflict, codeRolloverConflict},
}

// apiError writes {"error": code, "message": localized text}.
func (handler *Handler) apiError(c *fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": handler.i18n.Translate(currentLanguage(c), "error."+code),
	})
}

// respondError maps known domain errors to their status and code. Anything else is a 500.
func (handler *Handler) respondError(c *fiber.Ctx, err error) error {
	for _, mapping := range serviceErrorMappings {
		if errors.Is(err, mapping.target) {
			return handler.apiError(c, mapping.status, mapping.code)
		}
	}
	handler.logger.Error("request failed", append(requestFields(c), zap.Error(err))...)
	return handler.apiError(c, fiber.StatusInternalServerError, codeInternal)
}

func bearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

var errInvalidBody = errors.New("invalid request body")

// respondInputError reports undecodable bodies as 400 and everything else through respondError.
func (handler *Handler) respondInputError(c *fiber.Ctx, err error) error {
	if errors.Is(err, errInvalidBody) {
		return handler.apiError(c, fiber.StatusBadRequest, codeInvalidInput)
	}
	return handler.respondError(c, err)
}
