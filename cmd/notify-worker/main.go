package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/clinic-portal/cmd/mainconfig"
	"github.com/wolfman30/clinic-portal/internal/config"
	"github.com/wolfman30/clinic-portal/internal/messaging"
	"github.com/wolfman30/clinic-portal/internal/messaging/wagateway"
	"github.com/wolfman30/clinic-portal/internal/notify"
	"github.com/wolfman30/clinic-portal/internal/observability/metrics"
	notifyworker "github.com/wolfman30/clinic-portal/internal/worker/notifyworker"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

// notify-worker drains the SQS delivery queue and retries ledgered
// failures when dispatch runs outside the API process.
func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DatabaseURL == "" || cfg.NotifyQueueURL == "" {
		logger.Error("notify worker requires DATABASE_URL and NOTIFY_QUEUE_URL")
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

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

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	ledger := messaging.NewStore(pool)
	notifyMetrics := metrics.NewNotificationMetrics(prometheus.DefaultRegisterer)
	queue := notify.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL)

	sendWorker := notify.NewSendWorker(queue, gateway, ledger, logger, notifyMetrics).
		WithConcurrency(cfg.NotifyWorkerCount)

	alerts := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
	var alertSender notify.EmailSender
	if alerts != nil {
		alertSender = alerts
	}

	retrier := notifyworker.NewRetrySender(ledger, gateway, logger, notifyMetrics).
		WithMaxRetries(cfg.RetryMaxAutoAttempts).
		WithInterval(cfg.RetryInterval).
		WithBatchSize(cfg.RetryBatchSize).
		WithOperatorAlerts(alertSender, splitEmails(cfg.OperatorAlertEmails))

	go sendWorker.Run(ctx)
	go retrier.Run(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("notify worker shutting down")
	cancel()
	time.Sleep(2 * time.Second)
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
