// Package main is the entry point for the payment API. It wires storage,
// the gateway client and every service, then serves HTTP until signalled.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sitepay/internal/config"
	"sitepay/internal/gateway"
	"sitepay/internal/handlers"
	"sitepay/internal/jobs"
	"sitepay/internal/middleware"
	"sitepay/internal/observability"
	"sitepay/internal/repositories"
	"sitepay/internal/repositories/cache"
	"sitepay/internal/routes"
	"sitepay/internal/services/dashboard"
	"sitepay/internal/services/fees"
	"sitepay/internal/services/ledger"
	"sitepay/internal/services/onboarding"
	"sitepay/internal/services/payment"
	"sitepay/internal/services/revenue"
	"sitepay/internal/services/settlement"
	"sitepay/internal/utils/response"
	"sitepay/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	shutdownTracer, err := observability.InitTracer(cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		return err
	}

	// Initialize databases (PostgreSQL + Redis)
	db, err := repositories.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := repositories.Close(db); err != nil {
			logger.Warn("close database", zap.Error(err))
		}
	}()
	if err := repositories.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	cacheService := cache.NewCacheService(cache.NewRedisClient(cfg.Redis))
	defer func() {
		if err := cacheService.Close(); err != nil {
			logger.Warn("close redis", zap.Error(err))
		}
	}()

	metrics := observability.NewMetrics()
	validator := validation.New()

	gw := gateway.NewClient(gateway.Config{
		BaseURL:   cfg.Gateway.BaseURL,
		SecretKey: cfg.Gateway.SecretKey,
		Timeout:   cfg.Gateway.Timeout,
	}, metrics, logger.Named("gateway"))

	// Initialize repositories
	txRepo := repositories.NewTransactionRepository(db)
	accountRepo := repositories.NewPaymentAccountRepository(db)
	sessionRepo := repositories.NewOnboardingSessionRepository(db)
	revenueRepo := repositories.NewRevenueRepository(db)
	eventRepo := repositories.NewWebhookEventRepository(db)

	// Initialize services in dependency order
	feeCalculator := fees.NewFeeCalculator(cfg.Fees)
	ledgerService := ledger.NewService(txRepo, feeCalculator, cfg.IntentBucket, metrics, logger.Named("ledger"))
	recorder := revenue.NewRecorder(revenueRepo, cfg.Gateway.FeeCollection, metrics, logger.Named("revenue"))
	dashboardService := dashboard.NewService(txRepo, cacheService, cfg.Dashboard.CacheTTL, cfg.Dashboard.RecentLimit, metrics, logger.Named("dashboard"))
	processor := settlement.NewProcessor(cfg.Gateway.WebhookHash, ledgerService, recorder, eventRepo, cacheService, metrics, logger.Named("settlement"))
	onboardingService := onboarding.NewService(sessionRepo, accountRepo, gw, cacheService, validator, onboarding.Config{
		Countries:      cfg.Countries,
		Fees:           cfg.Fees,
		SessionTTL:     cfg.Onboarding.SessionTTL,
		RetainTerminal: cfg.Onboarding.RetainTerminal,
		BankListTTL:    cfg.Onboarding.BankListTTL,
	}, metrics, logger.Named("onboarding"))
	paymentService := payment.NewService(ledgerService, accountRepo, gw, feeCalculator, cacheService, payment.Config{
		Currencies:    cfg.Currencies(),
		Fees:          cfg.Fees,
		FeeCollection: cfg.Gateway.FeeCollection,
		RedirectURL:   cfg.Gateway.RedirectURL,
	}, metrics, logger.Named("payment"))

	scheduler := jobs.NewScheduler(metrics, logger.Named("jobs"))
	if cfg.Jobs.Enabled {
		if err := scheduler.RegisterDefaults(cfg.Jobs, onboardingService, recorder); err != nil {
			return err
		}
		scheduler.Start()
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.ServiceName,
		DisableStartupMessage: cfg.IsProduction(),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return response.FromError(c, err)
		},
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,HEAD",
	}))
	app.Use(observability.Tracing())
	app.Use(observability.RequestLogger(logger.Named("http")))

	routes.SetupRoutes(app, routes.Handlers{
		Webhook:    handlers.NewWebhookHandler(processor),
		Onboarding: handlers.NewOnboardingHandler(onboardingService, validator),
		Payment:    handlers.NewPaymentHandler(paymentService, validator),
		Account:    handlers.NewAccountHandler(paymentService, validator),
		Dashboard:  handlers.NewDashboardHandler(dashboardService),
		Health: handlers.NewHealthHandler(map[string]handlers.Check{
			"database": func(ctx context.Context) error { return repositories.Ping(ctx, db) },
			"redis":    cacheService.HealthCheck,
		}),
		Metrics: adaptor.HTTPHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})),
	}, middleware.NewAuthMiddleware(cfg.JWTSecret, logger.Named("auth")))

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		serveErr <- app.Listen(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("listen: %w", err)
		}
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := scheduler.Stop(ctx); err != nil {
		logger.Warn("jobs did not finish before shutdown", zap.Error(err))
	}
	if err := shutdownTracer(ctx); err != nil {
		logger.Warn("tracer shutdown", zap.Error(err))
	}
	return nil
}
