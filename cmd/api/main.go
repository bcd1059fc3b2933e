package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/clinic-portal/cmd/mainconfig"
	"github.com/wolfman30/clinic-portal/internal/api/router"
	"github.com/wolfman30/clinic-portal/internal/backend"
	"github.com/wolfman30/clinic-portal/internal/booking"
	appconfig "github.com/wolfman30/clinic-portal/internal/config"
	"github.com/wolfman30/clinic-portal/internal/eligibility"
	"github.com/wolfman30/clinic-portal/internal/http/handlers"
	"github.com/wolfman30/clinic-portal/internal/messaging"
	"github.com/wolfman30/clinic-portal/internal/messaging/wagateway"
	"github.com/wolfman30/clinic-portal/internal/notify"
	"github.com/wolfman30/clinic-portal/internal/observability/metrics"
	notifyworker "github.com/wolfman30/clinic-portal/internal/worker/notifyworker"
	"github.com/wolfman30/clinic-portal/pkg/logging"
	"github.com/wolfman30/clinic-portal/pkg/retry"
)

func main() {
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-portal API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backendClient, err := backend.New(backend.Config{
		BaseURL:   cfg.BackendBaseURL,
		APIKey:    cfg.BackendAPIKey,
		Timeout:   cfg.BackendTimeout,
		ReadRetry: retry.DefaultConfig(),
		Logger:    logger,
	})
	if err != nil {
		logger.Error("failed to create backend client", "error", err)
		os.Exit(1)
	}

	gateway, err := wagateway.New(wagateway.Config{
		BaseURL:  cfg.WAGatewayBaseURL,
		APIKey:   cfg.WAGatewayAPIKey,
		Instance: cfg.WAGatewayInstance,
		Timeout:  cfg.WAGatewayTimeout,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to create whatsapp gateway client", "error", err)
		os.Exit(1)
	}

	// Eligibility cache backend.
	var eligStore eligibility.Store
	if strings.EqualFold(cfg.EligibilityCacheBackend, "redis") {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		eligStore = eligibility.NewRedisStore(redis.NewClient(opts), cfg.EligibilityCacheTTL)
		logger.Info("eligibility cache using redis", "addr", cfg.RedisAddr, "ttl", cfg.EligibilityCacheTTL)
	} else {
		eligStore = eligibility.NewMemoryStore(cfg.EligibilityCacheTTL, time.Now)
	}
	eligService := eligibility.NewService(backendClient, eligStore, logger)

	// Failed-delivery ledger.
	var ledger *messaging.Store
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		ledger = messaging.NewStore(pool)
	} else {
		logger.Warn("DATABASE_URL not set; failed-delivery ledger disabled")
	}

	bookingMetrics := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)
	notifyMetrics := metrics.NewNotificationMetrics(prometheus.DefaultRegisterer)

	// Notification queue: in-memory for single-process deployments, SQS
	// when the send workers run in the notify-worker binary.
	var dispatcher *notify.Dispatcher
	// A nil *messaging.Store must stay a nil interface downstream.
	var sendLedger notify.FailureLedger
	if ledger != nil {
		sendLedger = ledger
	}

	if cfg.UseMemoryQueue {
		queue := notify.NewMemoryQueue(cfg.NotifyQueueBuffer)
		dispatcher = notify.NewDispatcher(queue, logger, notifyMetrics)
		sendWorker := notify.NewSendWorker(queue, gateway, sendLedger, logger, notifyMetrics).
			WithConcurrency(cfg.NotifyWorkerCount)
		go sendWorker.Run(ctx)
		if ledger != nil {
			retrier := notifyworker.NewRetrySender(ledger, gateway, logger, notifyMetrics).
				WithMaxRetries(cfg.RetryMaxAutoAttempts).
				WithInterval(cfg.RetryInterval).
				WithBatchSize(cfg.RetryBatchSize).
				WithOperatorAlerts(emailSender(cfg, logger), splitEmails(cfg.OperatorAlertEmails))
			go retrier.Run(ctx)
		}
	} else {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		queue := notify.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL)
		dispatcher = notify.NewDispatcher(queue, logger, notifyMetrics)
	}

	orch := booking.NewOrchestrator(backendClient, eligService, backendClient, dispatcher, logger, bookingMetrics)
	lifecycle := booking.NewLifecycle(backendClient, dispatcher, logger)

	adminNotifications := handlers.NewAdminNotificationsHandler(nil, nil, logger)
	if ledger != nil {
		manualRetrier := notifyworker.NewRetrySender(ledger, gateway, logger, notifyMetrics).
			WithMaxRetries(cfg.RetryMaxAutoAttempts)
		adminNotifications = handlers.NewAdminNotificationsHandler(ledger, manualRetrier, logger)
	}

	routerCfg := &router.Config{
		Logger:             logger,
		Health:             handlers.NewHealthHandler(backendClient, gateway, logger),
		PortalBooking:      handlers.NewPortalBookingHandler(orch, eligService, backendClient, logger),
		Appointments:       handlers.NewAppointmentsHandler(backendClient, lifecycle, logger),
		AdminNotifications: adminNotifications,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: corsOrigins(cfg),
		PortalRateLimit:    5,
		PortalRateBurst:    20,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	cancel()

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func emailSender(cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
	if sender == nil {
		return nil
	}
	return sender
}

func splitEmails(raw string) []string {
	var emails []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			emails = append(emails, trimmed)
		}
	}
	return emails
}

func corsOrigins(cfg *appconfig.Config) []string {
	if cfg.Env == "development" {
		return []string{"*"}
	}
	if cfg.PublicBaseURL != "" {
		return []string{cfg.PublicBaseURL}
	}
	return nil
}
