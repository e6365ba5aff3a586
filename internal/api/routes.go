package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	registerAPIRoutes(app, handler)
	app.Use(handler.NotFound)
}

func registerAPIRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api", handler.LanguageMiddleware)

	engine := api.Group("/cycle")
	engine.Post("/phase", handler.ClassifyPhase)
	engine.Post("/fertility", handler.EstimateFertility)
	engine.Post("/forecast", handler.ForecastCycles)
	engine.Get("/flow", handler.FlowIntensity)

	auth := api.Group("/auth")
	auth.Get("/setup-status", handler.SetupStatus)
	auth.Post("/register", handler.Register)
	auth.Post("/login", handler.Login)
	auth.Post("/logout", handler.Logout)

	me := api.Group("/me", handler.AuthRequired)
	me.Get("", handler.CurrentUser)
	me.Post("/password", handler.ChangePassword)
	me.Get("/cycle", handler.GetCycleOverview)
	me.Put("/cycle", handler.OwnerOnly, handler.UpdateCycleSettings)
	me.Post("/cycle/rollover", handler.OwnerOnly, handler.RolloverCycle)
	me.Get("/calendar", handler.OwnerOnly, handler.GetCalendar)
	me.Put("/telegram", handler.OwnerOnly, handler.UpdateTelegramChat)
}
