package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wolfman30/clinic-portal/internal/messaging"
	"github.com/wolfman30/clinic-portal/internal/worker/notifyworker"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

type failedAttemptLister interface {
	ListFailed(ctx context.Context, limit int) ([]messaging.NotificationAttempt, error)
}

type manualRetrier interface {
	RetryNow(ctx context.Context, id uuid.UUID) (*messaging.NotificationAttempt, error)
}

// AdminNotificationsHandler exposes the failed-delivery ledger to
// operators: list what failed and retry individual entries on demand.
type AdminNotificationsHandler struct {
	ledger  failedAttemptLister
	retrier manualRetrier
	logger  *logging.Logger
}

// NewAdminNotificationsHandler creates the admin notifications handler.
func NewAdminNotificationsHandler(ledger failedAttemptLister, retrier manualRetrier, logger *logging.Logger) *AdminNotificationsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminNotificationsHandler{
		ledger:  ledger,
		retrier: retrier,
		logger:  logger,
	}
}

// FailedNotificationsResponse is the ledger view, newest-first.
type FailedNotificationsResponse struct {
	Attempts []FailedNotification `json:"attempts"`
}

// FailedNotification is one ledger entry with its exhaustion flag so the
// UI can distinguish auto-retryable entries from manual-only ones.
type FailedNotification struct {
	messaging.NotificationAttempt
	Exhausted bool `json:"exhausted"`
}

// ListFailed returns failed deliveries awaiting retry. Delivered entries
// have left this view.
// GET /admin/notifications/failed?limit=50
func (h *AdminNotificationsHandler) ListFailed(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		jsonError(w, "notification ledger disabled", http.StatusServiceUnavailable)
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			jsonError(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	attempts, err := h.ledger.ListFailed(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list notification attempts", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := FailedNotificationsResponse{Attempts: make([]FailedNotification, 0, len(attempts))}
	for _, a := range attempts {
		resp.Attempts = append(resp.Attempts, FailedNotification{
			NotificationAttempt: a,
			Exhausted:           a.Exhausted(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Retry re-sends one entry immediately. Exhaustion only stops the
// automatic retry worker; this path always attempts the send.
// POST /admin/notifications/{attemptID}/retry
func (h *AdminNotificationsHandler) Retry(w http.ResponseWriter, r *http.Request) {
	if h.retrier == nil {
		jsonError(w, "notification retry disabled", http.StatusServiceUnavailable)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "attemptID"))
	if err != nil {
		jsonError(w, "invalid attempt id", http.StatusBadRequest)
		return
	}

	attempt, err := h.retrier.RetryNow(r.Context(), id)
	if err != nil {
		if errors.Is(err, messaging.ErrAttemptNotFound) {
			jsonError(w, "attempt not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, notifyworker.ErrGatewayUnavailable) {
			// Nothing was attempted and the retry counter is untouched.
			jsonError(w, "messaging gateway is not connected, try again later", http.StatusServiceUnavailable)
			return
		}
		if attempt != nil {
			// Already delivered; nothing to retry.
			jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		h.logger.Error("manual notification retry failed", "error", err, "attempt_id", id)
		jsonError(w, "retry failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, FailedNotification{
		NotificationAttempt: *attempt,
		Exhausted:           attempt.Exhausted(),
	})
}
