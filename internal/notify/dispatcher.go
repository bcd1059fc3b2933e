package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-portal/internal/observability/metrics"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

// Dispatcher fans an event out into per-recipient delivery jobs. Enqueueing
// is the only work done on the caller's goroutine; sending happens in the
// workers, so booking completion is observable before any notification
// completes.
type Dispatcher struct {
	queue   queueClient
	logger  *logging.Logger
	metrics *metrics.NotificationMetrics
}

// NewDispatcher creates a dispatcher over the given queue.
func NewDispatcher(queue queueClient, logger *logging.Logger, m *metrics.NotificationMetrics) *Dispatcher {
	if queue == nil {
		panic("notify: queue required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{queue: queue, logger: logger, metrics: m}
}

// Dispatch enqueues one delivery job per recipient. A recipient with no
// phone number, or whose enqueue fails, never blocks the others.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	audiences := Recipients(e)
	if len(audiences) == 0 {
		return fmt.Errorf("notify: no recipients for event %q actor %q", e.Kind, e.Actor)
	}

	var enqueueErrs int
	for _, audience := range audiences {
		contact := e.Contact(audience)
		if contact.Phone == "" {
			d.logger.Warn("notification skipped: no phone on file",
				"event", e.Kind, "audience", audience, "appointment_id", e.Appointment.ID)
			continue
		}
		body, templateName, err := RenderMessage(e, audience)
		if err != nil {
			d.logger.Error("notification render failed", "error", err, "event", e.Kind, "audience", audience)
			enqueueErrs++
			continue
		}
		job := deliveryJob{
			ID:            uuid.NewString(),
			Phone:         contact.Phone,
			Body:          body,
			Template:      templateName,
			CorrelationID: e.Appointment.ID.String(),
		}
		payload, err := encodeJob(job)
		if err != nil {
			d.logger.Error("notification encode failed", "error", err, "event", e.Kind, "audience", audience)
			enqueueErrs++
			continue
		}
		if err := d.queue.Send(ctx, payload); err != nil {
			d.logger.Error("notification enqueue failed", "error", err, "event", e.Kind, "audience", audience)
			enqueueErrs++
			continue
		}
		d.metrics.ObserveDispatched(string(e.Kind), string(audience))
	}
	if enqueueErrs > 0 {
		return fmt.Errorf("notify: %d recipient job(s) not enqueued", enqueueErrs)
	}
	return nil
}
