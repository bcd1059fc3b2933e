package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-portal/internal/appointment"
	"github.com/wolfman30/clinic-portal/internal/notify"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

// ErrNotCancellable rejects patient-initiated cancellation of an
// appointment that has already started or finished.
var ErrNotCancellable = errors.New("booking: appointment can no longer be cancelled")

// StatusUpdater issues the lifecycle mutation RPC.
type StatusUpdater interface {
	UpdateAppointment(ctx context.Context, id uuid.UUID, req appointment.StatusUpdate) (*appointment.Appointment, error)
}

// Lifecycle applies status transitions to existing appointments,
// validating the state machine locally before the remote mutation and
// cross-notifying the non-acting side.
type Lifecycle struct {
	backend  StatusUpdater
	notifier Notifier
	logger   *logging.Logger
	now      func() time.Time
}

// NewLifecycle constructs the lifecycle service.
func NewLifecycle(updater StatusUpdater, notifier Notifier, logger *logging.Logger) *Lifecycle {
	if updater == nil {
		panic("booking: status updater required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Lifecycle{
		backend:  updater,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (l *Lifecycle) WithClock(now func() time.Time) *Lifecycle {
	if now != nil {
		l.now = now
	}
	return l
}

// CancelRequest describes one cancellation.
type CancelRequest struct {
	Appointment appointment.Appointment
	Reason      string
	Actor       notify.ActorRole
	Patient     notify.Contact
	Provider    notify.Contact
}

// Cancel moves an appointment to cancelled. The reason is mandatory and
// the cancellation timestamp is stamped here, not by the caller. Who gets
// notified depends on who cancelled: the other side always hears about
// it, and an admin cancellation notifies both.
func (l *Lifecycle) Cancel(ctx context.Context, req CancelRequest) (*appointment.Appointment, error) {
	if req.Reason == "" {
		return nil, appointment.ErrCancellationReason
	}
	if req.Actor == notify.ActorPatient && !req.Appointment.Status.CancellableByPatient() {
		return nil, ErrNotCancellable
	}
	if err := appointment.ValidateTransition(req.Appointment.Status, appointment.StatusCancelled); err != nil {
		return nil, err
	}

	cancelledAt := l.now().UTC()
	appt, err := l.backend.UpdateAppointment(ctx, req.Appointment.ID, appointment.StatusUpdate{
		Status:             appointment.StatusCancelled,
		CancellationReason: req.Reason,
		CancelledAt:        &cancelledAt,
	})
	if err != nil {
		return nil, fmt.Errorf("booking: cancel appointment: %w", err)
	}
	l.logger.Info("appointment cancelled", "appointment_id", appt.ID, "actor", req.Actor, "reason", req.Reason)

	l.dispatchAsync(ctx, notify.Event{
		Kind:        notify.EventCancelled,
		Actor:       req.Actor,
		Appointment: *appt,
		Patient:     req.Patient,
		Provider:    req.Provider,
	})
	return appt, nil
}

// Reject declines a pending appointment request on the staff side. It is
// a cancellation under the hood but notifies the patient with rejection
// wording instead of cancellation wording.
func (l *Lifecycle) Reject(ctx context.Context, req CancelRequest) (*appointment.Appointment, error) {
	if req.Appointment.Status != appointment.StatusPending {
		return nil, fmt.Errorf("booking: only pending appointments can be rejected: %w", appointment.ErrInvalidStatusTransition)
	}
	if req.Actor != notify.ActorProvider && req.Actor != notify.ActorAdmin {
		return nil, errors.New("booking: only staff can reject an appointment request")
	}
	if req.Reason == "" {
		return nil, appointment.ErrCancellationReason
	}

	cancelledAt := l.now().UTC()
	appt, err := l.backend.UpdateAppointment(ctx, req.Appointment.ID, appointment.StatusUpdate{
		Status:             appointment.StatusCancelled,
		CancellationReason: req.Reason,
		CancelledAt:        &cancelledAt,
	})
	if err != nil {
		return nil, fmt.Errorf("booking: reject appointment: %w", err)
	}
	l.logger.Info("appointment rejected", "appointment_id", appt.ID, "actor", req.Actor, "reason", req.Reason)

	l.dispatchAsync(ctx, notify.Event{
		Kind:        notify.EventRejected,
		Actor:       req.Actor,
		Appointment: *appt,
		Patient:     req.Patient,
		Provider:    req.Provider,
	})
	return appt, nil
}

// UpdateStatus applies a forward transition (confirm, check in, start,
// complete, no-show). Cancellation goes through Cancel so the reason and
// timestamp rules cannot be bypassed.
func (l *Lifecycle) UpdateStatus(ctx context.Context, appt appointment.Appointment, next appointment.Status) (*appointment.Appointment, error) {
	if next == appointment.StatusCancelled {
		return nil, appointment.ErrCancellationReason
	}
	if err := appointment.ValidateTransition(appt.Status, next); err != nil {
		return nil, err
	}
	updated, err := l.backend.UpdateAppointment(ctx, appt.ID, appointment.StatusUpdate{Status: next})
	if err != nil {
		return nil, fmt.Errorf("booking: update status: %w", err)
	}
	l.logger.Info("appointment status updated", "appointment_id", updated.ID, "from", appt.Status, "to", next)
	return updated, nil
}

// Remind dispatches a scheduled reminder to the patient. Reminders only
// make sense for appointments that are still going to happen.
func (l *Lifecycle) Remind(ctx context.Context, appt appointment.Appointment, kind notify.EventKind, patient, provider notify.Contact) error {
	if kind != notify.EventReminder24h && kind != notify.EventReminder1h {
		return fmt.Errorf("booking: %q is not a reminder event", kind)
	}
	switch appt.Status {
	case appointment.StatusPending, appointment.StatusConfirmed:
	default:
		return fmt.Errorf("booking: cannot remind about a %s appointment", appt.Status)
	}
	if l.notifier == nil {
		return errors.New("booking: notifier not configured")
	}
	return l.notifier.Dispatch(ctx, notify.Event{
		Kind:        kind,
		Actor:       notify.ActorSystem,
		Appointment: appt,
		Patient:     patient,
		Provider:    provider,
	})
}

func (l *Lifecycle) dispatchAsync(ctx context.Context, e notify.Event) {
	if l.notifier == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	go func() {
		if err := l.notifier.Dispatch(detached, e); err != nil {
			l.logger.Error("notification dispatch failed", "error", err, "event", e.Kind, "appointment_id", e.Appointment.ID)
		}
	}()
}
