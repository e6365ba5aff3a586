package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/terraincognita07/cyclecast/internal/api"
	"github.com/terraincognita07/cyclecast/internal/config"
	"github.com/terraincognita07/cyclecast/internal/db"
	"github.com/terraincognita07/cyclecast/internal/i18n"
	"github.com/terraincognita07/cyclecast/internal/logging"
	"github.com/terraincognita07/cyclecast/internal/reminders"
	"github.com/terraincognita07/cyclecast/internal/services"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the reminder scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := runServer(ctx, cfg, logger); err != nil {
				logger.Error("server exited", zap.Error(err))
				return err
			}
			return nil
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	location, err := cfg.Location()
	if err != nil {
		return err
	}

	database, err := db.OpenSQLite(cfg.Database.Path, logging.StdLogger(logger, "gorm"))
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	if sqlDB, err := database.DB(); err == nil {
		defer sqlDB.Close()
	}

	i18nManager, err := i18n.NewManager(cfg.Language, i18n.Locales())
	if err != nil {
		return fmt.Errorf("i18n init failed: %w", err)
	}

	handler, err := api.NewHandler(api.Options{
		Database:      database,
		SecretKey:     []byte(cfg.Auth.SecretKey),
		Location:      location,
		CookieSecure:  cfg.Auth.CookieSecure,
		TokenTTL:      cfg.Auth.TokenTTL,
		ForecastCount: cfg.Cycle.ForecastCount,
		I18n:          i18nManager,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("handler init failed: %w", err)
	}
	app := newFiberApp(handler, logger)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("cyclecast listening",
			zap.String("port", cfg.HTTP.Port),
			zap.String("db", cfg.Database.Path),
			zap.String("tz", location.String()),
		)
		if err := app.Listen(":" + cfg.HTTP.Port); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if cfg.Reminders.Enabled {
		if err := startReminders(groupCtx, group, cfg, database, location, logger); err != nil {
			return err
		}
	}

	return group.Wait()
}

func startReminders(ctx context.Context, group *errgroup.Group, cfg *config.Config, database *gorm.DB, location *time.Location, logger *zap.Logger) error {
	bot, err := reminders.NewTelegramBot(reminders.TelegramOptions{
		Token: cfg.Reminders.TelegramToken,
		Poll:  cfg.Reminders.TelegramPoll,
	}, logger)
	if err != nil {
		return err
	}

	users := db.NewRepositories(database).Users
	service := services.NewReminderService(
		users,
		services.NewCycleService(users, cfg.Cycle.ForecastCount),
		bot,
		logger,
		services.ReminderSettings{
			PeriodReminderDays: cfg.Reminders.PeriodReminderDays,
			FertilityReminder:  cfg.Reminders.FertilityReminder,
			Location:           location,
		},
	)
	scheduler, err := reminders.NewScheduler(cfg.Reminders.CronSpec, location, service, logger)
	if err != nil {
		return err
	}

	group.Go(func() error { return scheduler.Run(ctx) })
	group.Go(func() error { return bot.Run(ctx) })
	return nil
}

func newFiberApp(handler *api.Handler, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Cyclecast",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(api.RequestLogger(logger))
	app.Use(compress.New())
	api.RegisterRoutes(app, handler)
	return app
}
