package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"tripdesk/docs"
	"tripdesk/internal/analytics"
	"tripdesk/internal/caching"
	"tripdesk/internal/config"
	"tripdesk/internal/handlers"
	"tripdesk/internal/jobs"
	"tripdesk/internal/jobs/background"
	"tripdesk/internal/metrics"
	"tripdesk/internal/middleware"
	"tripdesk/internal/repositories"
	"tripdesk/internal/services"
	"tripdesk/pkg/database"
	"tripdesk/pkg/logger"
)

const version = "1.0.0"

// @title                       TripDesk API
// @version                     1.0
// @description                 Back office for travel agencies: customers, packages, orders and installment payments.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.App.LogLevel,
		Environment: cfg.App.Environment,
		ServiceName: "tripdesk",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database.DSN(), log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, log); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)

	storage, err := services.NewMinioService(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey,
		cfg.Minio.UseSSL, cfg.Minio.LogoBucket, cfg.Minio.PublicURL)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	if err := storage.EnsureBucketExists(ctx); err != nil {
		// logo uploads degrade to a warning until storage is reachable
		log.Warn("logo bucket unavailable", zap.String("bucket", cfg.Minio.LogoBucket), zap.Error(err))
	}

	mailer := services.NewSMTPMailer(cfg.Email)
	if cfg.Email.SMTPHost == "" {
		log.Warn("SMTP_HOST not set, emails will not be delivered")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("tripdesk", registry)

	loc := cfg.App.Location()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	orgRepo := repositories.NewOrganizationRepo(pool)
	memberRepo := repositories.NewMemberRepo(pool)
	inviteRepo := repositories.NewInviteRepo(pool)
	customerRepo := repositories.NewCustomerRepo(pool)
	packageRepo := repositories.NewPackageRepo(pool)
	orderRepo := repositories.NewOrderRepo(pool)
	paymentRepo := repositories.NewPaymentRepo(pool)
	dashboardRepo := repositories.NewDashboardRepo(pool)
	auditLogsRepo := repositories.NewAuditLogsRepo(pool)

	// Services
	orgSvc := services.NewOrganizationService(orgRepo, storage)
	memberSvc := services.NewMemberService(memberRepo, orgRepo)
	inviteSvc := services.NewInviteService(inviteRepo, memberRepo, orgRepo, cacheSvc, mailer, m, services.InviteSettings{
		TTL:                cfg.App.InviteTTL,
		AppURL:             cfg.App.URL,
		RateLimitPerMinute: cfg.App.RateLimitPerMinute,
	})
	passwordSvc := services.NewPasswordService(userRepo)
	reminderSvc := services.NewReminderService(mailer, cacheSvc, m, cfg.App.RateLimitPerMinute)
	customerSvc := services.NewCustomerService(customerRepo)
	packageSvc := services.NewPackageService(packageRepo)
	orderSvc := services.NewOrderService(orderRepo, customerRepo, packageRepo, cacheSvc)
	paymentSvc := services.NewPaymentService(paymentRepo, orderRepo, cacheSvc, m, services.PaymentSettings{
		Location:      loc,
		DefaultMethod: cfg.App.DefaultPaymentMethod,
	})
	analyticsSvc := analytics.NewAnalyticsService(dashboardRepo, cacheSvc, loc)
	auditSvc := services.NewAuditLogsService(auditLogsRepo)

	// Background jobs
	scheduler, err := background.NewJobScheduler(loc)
	if err != nil {
		return err
	}
	if err := scheduler.RegisterDefaults(
		jobs.NewOverdueSweep(paymentSvc, 5*time.Minute),
		jobs.NewInviteCleanup(inviteSvc),
		jobs.NewAuditRetention(auditSvc, cfg.App.AuditRetention),
	); err != nil {
		return err
	}

	jwtMiddleware, stopJWKS, err := middleware.JWTAuth(cfg.JWT)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}
	defer stopJWKS()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handlers.NewHTTPErrorHandler(cfg.IsProduction())
	e.Validator = handlers.NewRequestValidator()
	e.Server.ReadTimeout = time.Duration(cfg.Server.ReadTimeout) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.Server.WriteTimeout) * time.Second

	// Global middleware
	e.Use(echoMiddleware.RequestID())
	e.Use(logger.Middleware())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins:  cfg.Server.CORSAllowedOrigins,
		AllowHeaders:  []string{echo.HeaderAuthorization, echo.HeaderContentType, "If-Match", middleware.HeaderOrganizationID},
		ExposeHeaders: []string{"ETag", "X-API-Version"},
	}))
	e.Use(echoMiddleware.RemoveTrailingSlash())
	e.Use(echoMiddleware.BodyLimit("6M"))
	e.Use(m.Middleware())

	// Health endpoints (no auth required)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, storage, version)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	if !cfg.IsProduction() {
		docs.SwaggerInfo.Version = version
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	versions := middleware.NewVersionMiddleware()
	e.GET("/versions", func(c echo.Context) error {
		return c.JSON(http.StatusOK, versions.Versions())
	})
	v1 := versions.VersionRoute(e, "v1")
	registerRoutes(v1, routeHandlers{
		organizations: handlers.NewOrganizationHandlers(orgSvc),
		members:       handlers.NewMemberHandlers(memberSvc),
		invites:       handlers.NewInviteHandlers(inviteSvc),
		functions:     handlers.NewFunctionHandlers(inviteSvc, passwordSvc, reminderSvc),
		customers:     handlers.NewCustomerHandlers(customerSvc),
		packages:      handlers.NewPackageHandlers(packageSvc),
		orders:        handlers.NewOrderHandlers(orderSvc),
		payments:      handlers.NewPaymentHandlers(paymentSvc),
		dashboard:     handlers.NewDashboardHandlers(analyticsSvc),
		auditLogs:     handlers.NewAuditLogsHandlers(auditSvc),
	}, []echo.MiddlewareFunc{jwtMiddleware, middleware.Authenticate(userRepo)}, memberRepo, auditSvc)

	scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("version", version), zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			_ = scheduler.Stop()
			return err
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}
	if err := scheduler.Stop(); err != nil {
		log.Error("scheduler shutdown failed", zap.Error(err))
	}
	return nil
}
