package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/terraincognita07/cyclecast/internal/models"
	"github.com/terraincognita07/cyclecast/internal/services"
)

type credentialsInput struct {
	Email       string `json:"email" form:"email"`
	Password    string `json:"password" form:"password"`
	DisplayName string `json:"display_name" form:"display_name"`
}

type changePasswordInput struct {
	CurrentPassword string `json:"current_password" form:"current_password"`
	NewPassword     string `json:"new_password" form:"new_password"`
}

type userResponse struct {
	ID                 uint   `json:"id"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	DisplayName        string `json:"display_name"`
	MustChangePassword bool   `json:"must_change_password"`
	TelegramChatID     int64  `json:"telegram_chat_id,omitempty"`
	HasCycleData       bool   `json:"has_cycle_data"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

func newUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:                 user.ID,
		Email:              user.Email,
		Role:               user.Role,
		DisplayName:        user.DisplayName,
		MustChangePassword: user.MustChangePassword,
		TelegramChatID:     user.TelegramChatID,
		HasCycleData:       user.HasCycleData(),
	}
}

func (handler *Handler) SetupStatus(c *fiber.Ctx) error {
	required, err := handler.authService.RequiresInitialSetup()
	if err != nil {
		return handler.respondError(c, err)
	}
	return c.JSON(fiber.Map{"setup_required": required})
}

func (handler *Handler) Register(c *fiber.Ctx) error {
	var input credentialsInput
	if err := c.BodyParser(&input); err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, codeInvalidInput)
	}

	session, err := handler.authService.Register(services.RegistrationInput{
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
	}, handler.now())
	if err != nil {
		return handler.respondError(c, err)
	}

	handler.logger.Info("account registered", zap.Uint("user_id", session.User.ID), zap.String("role", session.User.Role))
	return handler.respondSession(c, fiber.StatusCreated, session)
}

func (handler *Handler) Login(c *fiber.Ctx) error {
	var input credentialsInput
	if err := c.BodyParser(&input); err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, codeInvalidInput)
	}

	now := handler.now()
	limiterKey := loginLimiterKey(c, input.Email)
	if handler.loginLimiter.tooManyRecent(limiterKey, now, loginAttemptLimit, loginAttemptWindow) {
		c.Set(fiber.HeaderRetryAfter, "900")
		return handler.apiError(c, fiber.StatusTooManyRequests, codeTooManyAttempts)
	}

	session, err := handler.authService.Login(input.Email, input.Password, now)
	if err != nil {
		if errors.Is(err, services.ErrAuthInvalidLogin) {
			handler.loginLimiter.addFailure(limiterKey, now, loginAttemptWindow)
		}
		return handler.respondError(c, err)
	}
	handler.loginLimiter.reset(limiterKey)
	return handler.respondSession(c, fiber.StatusOK, session)
}

func (handler *Handler) Logout(c *fiber.Ctx) error {
	handler.clearAuthCookie(c)
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) CurrentUser(c *fiber.Ctx) error {
	user, _ := currentUser(c)
	return c.JSON(newUserResponse(user))
}

func (handler *Handler) ChangePassword(c *fiber.Ctx) error {
	user, _ := currentUser(c)

	var input changePasswordInput
	if err := c.BodyParser(&input); err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, codeInvalidInput)
	}

	session, err := handler.authService.ChangePassword(user.ID, input.CurrentPassword, input.NewPassword, handler.now())
	if err != nil {
		return handler.respondError(c, err)
	}
	return handler.respondSession(c, fiber.StatusOK, session)
}

func (handler *Handler) respondSession(c *fiber.Ctx, status int, session services.Session) error {
	if err := handler.setAuthCookie(c, session); err != nil {
		return handler.respondError(c, err)
	}
	return c.Status(status).JSON(sessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      newUserResponse(&session.User),
	})
}

func (handler *Handler) setAuthCookie(c *fiber.Ctx, session services.Session) error {
	sealed, err := handler.cookies.seal(authCookieName, []byte(session.Token))
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     authCookieName,
		Value:    sealed,
		Path:     "/",
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: fiber.CookieSameSiteStrictMode,
		Expires:  session.ExpiresAt,
	})
	return nil
}

func (handler *Handler) clearAuthCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: fiber.CookieSameSiteStrictMode,
		Expires:  handler.now().Add(-time.Hour),
	})
}
