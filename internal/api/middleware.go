package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/terraincognita07/cyclecast/internal/models"
)

const (
	authCookieName     = "cyclecast_auth"
	languageCookieName = "cyclecast_lang"
	requestIDHeader    = "X-Request-ID"
	contextUserKey     = "current_user"
	contextLanguageKey = "current_language"
	contextRequestID   = "request_id"
)

func currentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(contextUserKey).(*models.User)
	return user, ok && user != nil
}

func currentLanguage(c *fiber.Ctx) string {
	language, _ := c.Locals(contextLanguageKey).(string)
	return language
}

func requestFields(c *fiber.Ctx) []zap.Field {
	requestID, _ := c.Locals(contextRequestID).(string)
	return []zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
	}
}

// RequestLogger tags each request with an id and logs it once it completes.
func RequestLogger(logger *zap.Logger) fiber.Handler {
	logger = logger.Named("access")
	return func(c *fiber.Ctx) error {
		started := time.Now()
		requestID := strings.TrimSpace(c.Get(requestIDHeader))
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		c.Locals(contextRequestID, requestID)
		c.Set(requestIDHeader, requestID)

		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		fields := append(requestFields(c),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(started)),
			zap.String("ip", c.IP()),
		)
		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("request", append(fields, zap.Error(err))...)
		case status >= fiber.StatusBadRequest:
			logger.Info("request", fields...)
		default:
			logger.Debug("request", fields...)
		}
		return err
	}
}

// LanguageMiddleware resolves the response language from ?lang=, the language cookie or Accept-Language.
func (handler *Handler) LanguageMiddleware(c *fiber.Ctx) error {
	language := handler.i18n.DetectFromAcceptLanguage(c.Get(fiber.HeaderAcceptLanguage))
	if cookieLanguage := c.Cookies(languageCookieName); cookieLanguage != "" {
		language = handler.i18n.NormalizeLanguage(cookieLanguage)
	}
	if queryLanguage := c.Query("lang"); queryLanguage != "" {
		language = handler.i18n.NormalizeLanguage(queryLanguage)
		handler.setLanguageCookie(c, language)
	}

	c.Locals(contextLanguageKey, language)
	c.Set(fiber.HeaderContentLanguage, language)
	return c.Next()
}

func (handler *Handler) setLanguageCookie(c *fiber.Ctx, language string) {
	c.Cookie(&fiber.Cookie{
		Name:     languageCookieName,
		Value:    language,
		Path:     "/",
		Secure:   handler.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  handler.now().AddDate(1, 0, 0),
	})
}

// AuthRequired accepts a bearer token or the sealed session cookie.
func (handler *Handler) AuthRequired(c *fiber.Ctx) error {
	user, err := handler.authenticateRequest(c)
	if err != nil {
		return handler.apiError(c, fiber.StatusUnauthorized, codeUnauthorized)
	}

	c.Locals(contextUserKey, &user)
	if user.MustChangePassword && c.Path() != "/api/me/password" {
		return handler.apiError(c, fiber.StatusForbidden, codePasswordChangeRequired)
	}
	return c.Next()
}

func (handler *Handler) authenticateRequest(c *fiber.Ctx) (models.User, error) {
	token := bearerToken(c)
	if token == "" {
		sealed := strings.TrimSpace(c.Cookies(authCookieName))
		if sealed != "" {
			opened, err := handler.cookies.open(authCookieName, sealed)
			if err != nil {
				return models.User{}, err
			}
			token = string(opened)
		}
	}
	return handler.authService.Authenticate(token, handler.now())
}

func (handler *Handler) OwnerOnly(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return handler.apiError(c, fiber.StatusUnauthorized, codeUnauthorized)
	}
	if !user.IsOwner() {
		return handler.apiError(c, fiber.StatusForbidden, codeForbidden)
	}
	return c.Next()
}
