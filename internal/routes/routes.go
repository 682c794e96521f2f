// Package routes maps HTTP paths to handlers and applies authentication and
// tenant access checks.
package routes

import (
	"sitepay/internal/handlers"
	"sitepay/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Webhook    *handlers.WebhookHandler
	Onboarding *handlers.OnboardingHandler
	Payment    *handlers.PaymentHandler
	Account    *handlers.AccountHandler
	Dashboard  *handlers.DashboardHandler
	Health     *handlers.HealthHandler
	// Metrics serves the Prometheus scrape endpoint. Optional.
	Metrics fiber.Handler
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, h Handlers, auth *middleware.AuthMiddleware) {
	// Public endpoints (no auth required)
	app.Get("/health", h.Health.Health)
	if h.Metrics != nil {
		app.Get("/metrics", h.Metrics)
	}
	// The gateway authenticates with the verif-hash header instead of a token.
	app.Post("/payment/webhook", h.Webhook.Handle)

	setupOnboardingRoutes(app.Group("/onboarding", auth.Handler), h.Onboarding)
	setupBusinessRoutes(app.Group("/businesses/:id", auth.Handler, middleware.RequireBusinessAccess), h)
}

func setupOnboardingRoutes(router fiber.Router, h *handlers.OnboardingHandler) {
	router.Get("/banks", h.Banks)
	router.Post("/start", h.Start)
	router.Get("/:sessionId", h.Get)
	router.Post("/:sessionId/step", h.ProcessStep)
	router.Post("/:sessionId/abandon", h.Abandon)
}

func setupBusinessRoutes(router fiber.Router, h Handlers) {
	router.Get("/dashboard", h.Dashboard.GetBusinessDashboard)

	router.Get("/account", h.Account.GetAccount)
	router.Put("/account/tier", middleware.RequireAdmin, h.Account.ChangeTier)
	router.Post("/account/suspend", middleware.RequireAdmin, h.Account.Suspend)
	router.Post("/account/reactivate", middleware.RequireAdmin, h.Account.Reactivate)
	router.Get("/fees/quote", h.Account.QuoteFees)

	payments := router.Group("/payments")
	payments.Post("/", h.Payment.InitiatePayment)
	payments.Get("/", h.Payment.ListTransactions)
	payments.Get("/:txRef", h.Payment.GetTransaction)
}
