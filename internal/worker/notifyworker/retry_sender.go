// Package notifyworker retries ledgered notification failures on a
// schedule and exposes the manual retry path the admin surface uses.
package notifyworker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-portal/internal/messaging"
	"github.com/wolfman30/clinic-portal/internal/messaging/wagateway"
	"github.com/wolfman30/clinic-portal/internal/notify"
	"github.com/wolfman30/clinic-portal/internal/observability/metrics"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

// ErrExhausted marks an entry past the automatic retry cap. Manual
// retries ignore it.
var ErrExhausted = errors.New("notifyworker: attempt has exhausted automatic retries")

// ErrGatewayUnavailable reports that no live outbound channel exists, so
// a retry was not attempted and the retry counter is untouched.
var ErrGatewayUnavailable = errors.New("notifyworker: gateway not connected")

type retryStore interface {
	GetAttempt(ctx context.Context, id uuid.UUID) (*messaging.NotificationAttempt, error)
	ListAutoRetryCandidates(ctx context.Context, limit int, maxRetries int) ([]messaging.NotificationAttempt, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) error
	MarkRetryFailed(ctx context.Context, id uuid.UUID, sendErr string) error
}

// RetrySender re-sends ledgered failures through the gateway until each
// entry is delivered or exhausts its automatic retries. Exhausted entries
// stay in the ledger for manual retry and trigger an operator alert.
type RetrySender struct {
	store          retryStore
	gateway        notify.Gateway
	alerts         notify.EmailSender
	operatorEmails []string
	logger         *logging.Logger
	metrics        *metrics.NotificationMetrics
	maxRetries     int
	interval       time.Duration
	batchSize      int
}

// NewRetrySender constructs the retry worker with default pacing.
func NewRetrySender(store retryStore, gateway notify.Gateway, logger *logging.Logger, m *metrics.NotificationMetrics) *RetrySender {
	if logger == nil {
		logger = logging.Default()
	}
	return &RetrySender{
		store:      store,
		gateway:    gateway,
		logger:     logger,
		metrics:    m,
		maxRetries: messaging.MaxAutoRetries,
		interval:   1 * time.Minute,
		batchSize:  25,
	}
}

// WithMaxRetries caps automatic retries per entry.
func (r *RetrySender) WithMaxRetries(n int) *RetrySender {
	if n > 0 {
		r.maxRetries = n
	}
	return r
}

// WithInterval sets the drain cadence.
func (r *RetrySender) WithInterval(d time.Duration) *RetrySender {
	if d > 0 {
		r.interval = d
	}
	return r
}

// WithBatchSize bounds how many entries one drain processes.
func (r *RetrySender) WithBatchSize(n int) *RetrySender {
	if n > 0 {
		r.batchSize = n
	}
	return r
}

// WithOperatorAlerts wires the email sender used when an entry exhausts
// its automatic retries.
func (r *RetrySender) WithOperatorAlerts(sender notify.EmailSender, emails []string) *RetrySender {
	r.alerts = sender
	r.operatorEmails = emails
	return r
}

// Run drains once immediately, then on every tick until ctx is canceled.
func (r *RetrySender) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.drain(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.drain(ctx)
		}
	}
}

func (r *RetrySender) drain(ctx context.Context) {
	if r.store == nil || r.gateway == nil {
		return
	}
	// A dead gateway would burn every candidate's retry budget on the
	// same connection error, so the whole cycle waits instead.
	if !r.gatewayReady(ctx) {
		r.logger.Warn("gateway not connected, skipping retry cycle")
		return
	}
	attempts, err := r.store.ListAutoRetryCandidates(ctx, r.batchSize, r.maxRetries)
	if err != nil {
		r.logger.Error("retry candidate fetch failed", "error", err)
		return
	}
	for _, a := range attempts {
		r.retryOne(ctx, a, "auto")
	}
}

// RetryNow re-sends one ledger entry on operator demand. Exhaustion only
// blocks the automatic path; a manual retry always gets an attempt, and
// its outcome still advances the counter. A retry still requires a live
// outbound channel: with the gateway down the counter stays untouched
// and the operator gets ErrGatewayUnavailable instead.
func (r *RetrySender) RetryNow(ctx context.Context, id uuid.UUID) (*messaging.NotificationAttempt, error) {
	if r.store == nil {
		return nil, errors.New("notifyworker: ledger store not configured")
	}
	attempt, err := r.store.GetAttempt(ctx, id)
	if err != nil {
		return nil, err
	}
	if attempt.Status == messaging.StatusDelivered {
		return attempt, fmt.Errorf("notifyworker: attempt %s already delivered", id)
	}
	if r.gateway == nil || !r.gatewayReady(ctx) {
		return nil, ErrGatewayUnavailable
	}
	r.retryOne(ctx, *attempt, "manual")
	return r.store.GetAttempt(ctx, id)
}

func (r *RetrySender) retryOne(ctx context.Context, a messaging.NotificationAttempt, mode string) {
	_, err := r.gateway.SendText(ctx, wagateway.SendTextRequest{
		Number:        a.Phone,
		Text:          a.Body,
		CorrelationID: a.ID.String(),
	})
	if err != nil {
		r.metrics.ObserveRetry("failed", mode)
		if markErr := r.store.MarkRetryFailed(ctx, a.ID, err.Error()); markErr != nil {
			r.logger.Error("mark retry failed errored", "error", markErr, "attempt_id", a.ID)
			return
		}
		r.logger.Warn("notification retry failed", "attempt_id", a.ID, "retry_count", a.RetryCount+1, "mode", mode, "error", err)
		if mode == "auto" && a.RetryCount+1 >= r.maxRetries {
			r.alertExhausted(ctx, a)
		}
		return
	}
	r.metrics.ObserveRetry("delivered", mode)
	if err := r.store.MarkDelivered(ctx, a.ID); err != nil {
		r.logger.Error("mark delivered failed", "error", err, "attempt_id", a.ID)
		return
	}
	r.logger.Info("notification retry delivered", "attempt_id", a.ID, "template", a.Template, "mode", mode)
}

func (r *RetrySender) gatewayReady(ctx context.Context) bool {
	connected, err := r.gateway.Connected(ctx)
	if err == nil && connected {
		return true
	}
	if err := r.gateway.Connect(ctx); err != nil {
		r.logger.Error("gateway reconnect failed", "error", err)
		return false
	}
	connected, err = r.gateway.Connected(ctx)
	if err != nil {
		r.logger.Error("gateway state check failed", "error", err)
		return false
	}
	return connected
}

// alertExhausted emails the operator list once an entry crosses the
// automatic retry cap and is left waiting on manual action.
func (r *RetrySender) alertExhausted(ctx context.Context, a messaging.NotificationAttempt) {
	r.logger.Error("notification retries exhausted", "attempt_id", a.ID, "phone", a.Phone, "template", a.Template)
	if r.alerts == nil || len(r.operatorEmails) == 0 {
		return
	}
	body := fmt.Sprintf(
		"Notification %s (template %s) to %s has failed %d times and will not be retried automatically.\n\nLast error: %s\n\nRetry it manually from the admin panel.",
		a.ID, a.Template, a.Phone, r.maxRetries, a.LastError,
	)
	msg := notify.EmailMessage{
		Subject: "Notification delivery exhausted: " + a.ID.String(),
		Body:    body,
	}
	for _, email := range r.operatorEmails {
		email = strings.TrimSpace(email)
		if email == "" {
			continue
		}
		msg.To = email
		if err := r.alerts.Send(ctx, msg); err != nil {
			r.logger.Error("operator alert email failed", "error", err, "to", email, "attempt_id", a.ID)
		}
	}
}
