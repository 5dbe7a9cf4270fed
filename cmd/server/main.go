package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/forgo/mentora/api/internal/config"
	"github.com/forgo/mentora/api/internal/database"
	"github.com/forgo/mentora/api/internal/gateway"
	"github.com/forgo/mentora/api/internal/handler"
	"github.com/forgo/mentora/api/internal/jobs"
	"github.com/forgo/mentora/api/internal/middleware"
	"github.com/forgo/mentora/api/internal/model"
	"github.com/forgo/mentora/api/internal/repository"
	"github.com/forgo/mentora/api/internal/service"
	"github.com/forgo/mentora/api/pkg/retry"
)

func main() {
	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// .env is optional, real deployments inject environment directly
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	// Initialize repositories
	ledgerRepo := repository.NewLedgerRepository(db)
	payableRepo := repository.NewPayableRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Initialize meeting provider gateways
	feishuClient := gateway.NewFeishuClient(gateway.FeishuConfig{
		BaseURL:   cfg.Meeting.BaseURL,
		AppID:     cfg.Meeting.AppID,
		AppSecret: cfg.Meeting.AppSecret,
	})
	meetingGateway := gateway.NewFeishuMeetingGateway(feishuClient)
	calendarGateway := gateway.NewFeishuCalendarGateway(feishuClient, cfg.Calendar.CalendarID)
	directory := gateway.NewFeishuDirectory(feishuClient)
	emailGateway := gateway.NewWebhookEmailGateway(cfg.Email.WebhookURL, cfg.Email.FromName, logger)

	// Initialize event bus
	bus := service.NewEventBus(logger)
	defer bus.Close()

	// Resolve mentor hourly rates from config
	rates := make(map[string]model.Money, len(cfg.Rates.HourlyRates))
	for serviceType, raw := range cfg.Rates.HourlyRates {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			slog.Error("invalid hourly rate",
				slog.String("service_type", serviceType),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
		rate, err := model.NewMoney(amount, cfg.Rates.Currency)
		if err != nil {
			slog.Error("invalid hourly rate",
				slog.String("service_type", serviceType),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
		rates[serviceType] = rate
	}

	// Initialize services
	entitlementService := service.NewEntitlementService(service.EntitlementServiceConfig{
		LedgerRepo: ledgerRepo,
		Logger:     logger,
	})

	earningsService := service.NewMentorEarningsService(service.MentorEarningsServiceConfig{
		PayableRepo: payableRepo,
		Rates:       rates,
		Logger:      logger,
	})
	earningsService.Register(bus)

	notificationService := service.NewNotificationService(notificationRepo, emailGateway, logger)

	provisioner := service.NewMeetingProvisioner(service.MeetingProvisionerConfig{
		Sessions:  sessionRepo,
		Meetings:  meetingRepo,
		Provider:  meetingGateway,
		Calendar:  calendarGateway,
		Directory: directory,
		Bus:       bus,
		RetryPolicy: retry.Policy{
			MaxAttempts:  cfg.Meeting.RetryAttempts,
			InitialDelay: cfg.Meeting.RetryDelay,
		},
		Logger: logger,
	})
	provisioner.Register(bus)

	reactionHandler := service.NewSessionReactionHandler(service.SessionReactionConfig{
		Sessions:        sessionRepo,
		Directory:       directory,
		Calendar:        calendarGateway,
		Email:           emailGateway,
		Reminders:       notificationService,
		CalendarEnabled: cfg.Calendar.Enabled,
		Logger:          logger,
	})
	reactionHandler.Register(bus)

	// Initialize background jobs
	dispatcher := jobs.NewNotificationDispatcher(notificationService, cfg.Notifications.DispatchInterval, logger)
	dispatcher.Start()
	defer dispatcher.Stop()

	cleanup := jobs.NewQueueCleanup(notificationService, cfg.Notifications.CleanupInterval, logger)
	cleanup.Start()
	defer cleanup.Stop()

	// Initialize handlers
	entitlementHandler := handler.NewEntitlementHandler(entitlementService)
	earningsHandler := handler.NewEarningsHandler(earningsService)
	eventsHandler := handler.NewSessionEventsHandler(bus)
	healthHandler := handler.NewHealthHandler(db)

	// Setup routes
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", healthHandler.Check)

	// Entitlement ledger endpoints
	mux.HandleFunc("POST /v1/students/{studentId}/entitlements/{serviceType}/consume", entitlementHandler.Consume)
	mux.HandleFunc("POST /v1/students/{studentId}/entitlements/{serviceType}/refund", entitlementHandler.Refund)
	mux.HandleFunc("POST /v1/students/{studentId}/entitlements/{serviceType}/adjust", entitlementHandler.Adjust)
	mux.HandleFunc("GET /v1/students/{studentId}/entitlements/{serviceType}/balance", entitlementHandler.Balance)
	mux.HandleFunc("GET /v1/students/{studentId}/entitlements/{serviceType}/history", entitlementHandler.History)
	mux.HandleFunc("GET /v1/ledger-entries/{entryId}", entitlementHandler.Entry)

	// Mentor payable endpoints
	mux.HandleFunc("POST /v1/payables/{payableId}/adjust", earningsHandler.Adjust)
	mux.HandleFunc("POST /v1/mentors/{mentorId}/payables/settle", earningsHandler.Settle)

	// Session lifecycle intake from the booking layer
	mux.HandleFunc("POST /v1/sessions/{sessionId}/events/created", eventsHandler.SessionCreated)
	mux.HandleFunc("POST /v1/sessions/{sessionId}/events/updated", eventsHandler.SessionUpdated)
	mux.HandleFunc("POST /v1/sessions/{sessionId}/events/cancelled", eventsHandler.SessionCancelled)

	// Meeting provider webhooks
	mux.HandleFunc("POST /v1/webhooks/meetings/ended", eventsHandler.MeetingEnded)

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.Compress,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}
