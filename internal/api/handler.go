package api

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/terraincognita07/cyclecast/internal/cycle"
	"github.com/terraincognita07/cyclecast/internal/db"
	"github.com/terraincognita07/cyclecast/internal/i18n"
	"github.com/terraincognita07/cyclecast/internal/services"
)

type Options struct {
	Database      *gorm.DB
	SecretKey     []byte
	Location      *time.Location
	CookieSecure  bool
	TokenTTL      time.Duration
	ForecastCount int
	I18n          *i18n.Manager
	Logger        *zap.Logger
}

type Handler struct {
	db            *gorm.DB
	location      *time.Location
	cookieSecure  bool
	forecastCount int
	i18n          *i18n.Manager
	logger        *zap.Logger
	cookies       *secureCookieCodec
	loginLimiter  *attemptLimiter
	now           func() time.Time

	authService     *services.AuthService
	cycleService    *services.CycleService
	settingsService *services.SettingsService
}

func NewHandler(options Options) (*Handler, error) {
	if options.Database == nil {
		return nil, errors.New("database is required")
	}
	if options.I18n == nil {
		return nil, errors.New("i18n manager is required")
	}
	if options.Location == nil {
		options.Location = time.UTC
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	if options.ForecastCount <= 0 {
		options.ForecastCount = cycle.DefaultForecastCount
	}

	cookies, err := newSecureCookieCodec(options.SecretKey)
	if err != nil {
		return nil, err
	}

	repositories := db.NewRepositories(options.Database)
	return &Handler{
		db:              options.Database,
		location:        options.Location,
		cookieSecure:    options.CookieSecure,
		forecastCount:   options.ForecastCount,
		i18n:            options.I18n,
		logger:          options.Logger.Named("http"),
		cookies:         cookies,
		loginLimiter:    newAttemptLimiter(),
		now:             time.Now,
		authService:     services.NewAuthService(repositories.Users, options.SecretKey, options.TokenTTL),
		cycleService:    services.NewCycleService(repositories.Users, options.ForecastCount),
		settingsService: services.NewSettingsService(repositories.Users),
	}, nil
}

// today is the calendar date in the configured zone.
func (handler *Handler) today() time.Time {
	return services.CalendarToday(handler.now(), handler.location)
}
