// Package booking drives the four-step booking flow (type, provider,
// slot, confirmation) and the appointment lifecycle mutations, enforcing
// the local rules before any remote call and handing completed bookings
// off to the notification dispatcher without waiting on delivery.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/clinic-portal/internal/appointment"
	"github.com/wolfman30/clinic-portal/internal/availability"
	"github.com/wolfman30/clinic-portal/internal/backend"
	"github.com/wolfman30/clinic-portal/internal/eligibility"
	"github.com/wolfman30/clinic-portal/internal/notify"
	"github.com/wolfman30/clinic-portal/internal/observability/metrics"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

var bookingTracer = otel.Tracer("clinicportal.internal.booking")

var (
	ErrStepIncomplete   = errors.New("booking: previous step not completed")
	ErrNotEligible      = errors.New("booking: patient not eligible for this appointment type")
	ErrSlotNotSelected  = errors.New("booking: no slot selected")
	ErrSlotNotAvailable = errors.New("booking: selected slot is not in the available set")
)

// Party identifies one side of an appointment with its contact info.
type Party struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone string    `json:"phone"`
}

// Contact converts a Party for the dispatcher.
func (p Party) Contact() notify.Contact {
	return notify.Contact{Name: p.Name, Phone: p.Phone}
}

// AppointmentCreator issues the create RPC.
type AppointmentCreator interface {
	CreateAppointment(ctx context.Context, req backend.CreateAppointmentRequest) (*appointment.Appointment, error)
}

// EligibilityService is the cached eligibility front.
type EligibilityService interface {
	CheckEligibility(ctx context.Context, patientID uuid.UUID, apptType appointment.Type) (eligibility.Result, error)
}

// Notifier enqueues lifecycle notifications.
type Notifier interface {
	Dispatch(ctx context.Context, e notify.Event) error
}

// Orchestrator owns the collaborators shared by all booking flows.
type Orchestrator struct {
	backend     AppointmentCreator
	eligibility EligibilityService
	slots       availability.SlotFetcher
	notifier    Notifier
	logger      *logging.Logger
	metrics     *metrics.BookingMetrics
	now         func() time.Time
}

// NewOrchestrator constructs the booking orchestrator.
func NewOrchestrator(creator AppointmentCreator, elig EligibilityService, slots availability.SlotFetcher, notifier Notifier, logger *logging.Logger, m *metrics.BookingMetrics) *Orchestrator {
	if creator == nil {
		panic("booking: appointment creator required")
	}
	if elig == nil {
		panic("booking: eligibility service required")
	}
	if slots == nil {
		panic("booking: slot fetcher required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Orchestrator{
		backend:     creator,
		eligibility: elig,
		slots:       slots,
		notifier:    notifier,
		logger:      logger,
		metrics:     m,
		now:         time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	if now != nil {
		o.now = now
	}
	return o
}

// NewFlow starts a booking session for one patient.
func (o *Orchestrator) NewFlow(patient Party) *Flow {
	return &Flow{
		o:        o,
		patient:  patient,
		slots:    availability.NewQuery(o.slots, o.logger),
		modality: appointment.ModalityInPerson,
	}
}

// create issues the remote mutation and classifies failures. Never
// auto-retried: the user resubmits explicitly.
func (o *Orchestrator) create(ctx context.Context, req backend.CreateAppointmentRequest) (*appointment.Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.create",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("clinicportal.patient_id", req.PatientID.String()),
			attribute.String("clinicportal.provider_id", req.ProviderID.String()),
			attribute.String("clinicportal.appointment_type", string(req.Type)),
		))
	defer span.End()

	appt, err := o.backend.CreateAppointment(ctx, req)
	if err != nil {
		span.RecordError(err)
		reason := Classify(err)
		o.metrics.ObserveFailed(string(reason))
		o.logger.Warn("booking create rejected", "reason", reason, "error", err)
		return nil, &Error{Reason: reason, Err: err}
	}
	o.metrics.ObserveCreated(string(req.Type))
	o.logger.Info("booking created", "appointment_id", appt.ID, "patient_id", req.PatientID, "scheduled_at", req.ScheduledAt)
	return appt, nil
}

// dispatchAsync hands the created event to the notifier on a detached
// context: booking completion is observable before any notification
// completes, and navigating away must not cancel an issued dispatch.
func (o *Orchestrator) dispatchAsync(ctx context.Context, e notify.Event) {
	if o.notifier == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	go func() {
		if err := o.notifier.Dispatch(detached, e); err != nil {
			o.logger.Error("notification dispatch failed", "error", err, "event", e.Kind, "appointment_id", e.Appointment.ID)
		}
	}()
}
