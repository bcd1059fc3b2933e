package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wolfman30/clinic-portal/internal/appointment"
	"github.com/wolfman30/clinic-portal/internal/booking"
	"github.com/wolfman30/clinic-portal/internal/notify"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

type appointmentGetter interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
}

// AppointmentsHandler serves lifecycle mutations on existing
// appointments: cancellation on the portal side, status updates,
// rejection, and reminder dispatch on the admin side.
type AppointmentsHandler struct {
	backend   appointmentGetter
	lifecycle *booking.Lifecycle
	logger    *logging.Logger
}

// NewAppointmentsHandler creates the lifecycle handler.
func NewAppointmentsHandler(backend appointmentGetter, lifecycle *booking.Lifecycle, logger *logging.Logger) *AppointmentsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentsHandler{
		backend:   backend,
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// CancelAppointmentRequest carries who is cancelling and why, plus the
// contacts the cross-notification goes to.
type CancelAppointmentRequest struct {
	Reason   string           `json:"reason"`
	Actor    notify.ActorRole `json:"actor"`
	Patient  notify.Contact   `json:"patient"`
	Provider notify.Contact   `json:"provider"`
}

// CancelAppointment cancels with a mandatory reason. The non-acting side
// is notified; an admin cancellation notifies both.
// POST /portal/appointments/{appointmentID}/cancel
func (h *AppointmentsHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	appt, ok := h.loadAppointment(w, r)
	if !ok {
		return
	}
	var req CancelAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Actor == "" {
		req.Actor = notify.ActorPatient
	}

	updated, err := h.lifecycle.Cancel(r.Context(), booking.CancelRequest{
		Appointment: *appt,
		Reason:      req.Reason,
		Actor:       req.Actor,
		Patient:     req.Patient,
		Provider:    req.Provider,
	})
	if err != nil {
		h.writeLifecycleError(w, err, appt.ID)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// RejectAppointment declines a pending request on the staff side.
// POST /admin/appointments/{appointmentID}/reject
func (h *AppointmentsHandler) RejectAppointment(w http.ResponseWriter, r *http.Request) {
	appt, ok := h.loadAppointment(w, r)
	if !ok {
		return
	}
	var req CancelAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Actor == "" {
		req.Actor = notify.ActorAdmin
	}

	updated, err := h.lifecycle.Reject(r.Context(), booking.CancelRequest{
		Appointment: *appt,
		Reason:      req.Reason,
		Actor:       req.Actor,
		Patient:     req.Patient,
		Provider:    req.Provider,
	})
	if err != nil {
		h.writeLifecycleError(w, err, appt.ID)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// UpdateStatusRequest names the target status for a forward transition.
type UpdateStatusRequest struct {
	Status appointment.Status `json:"status"`
}

// UpdateStatus applies confirm, check-in, start, complete, or no-show.
// Cancellation must go through the cancel endpoint so the reason rule
// cannot be bypassed.
// POST /admin/appointments/{appointmentID}/status
func (h *AppointmentsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	appt, ok := h.loadAppointment(w, r)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if !req.Status.IsValid() {
		jsonError(w, "unknown status", http.StatusBadRequest)
		return
	}

	updated, err := h.lifecycle.UpdateStatus(r.Context(), *appt, req.Status)
	if err != nil {
		h.writeLifecycleError(w, err, appt.ID)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// RemindRequest selects the reminder variant and its recipients.
type RemindRequest struct {
	Kind     notify.EventKind `json:"kind"`
	Patient  notify.Contact   `json:"patient"`
	Provider notify.Contact   `json:"provider"`
}

// Remind dispatches a scheduled reminder for an upcoming appointment.
// POST /admin/appointments/{appointmentID}/remind
func (h *AppointmentsHandler) Remind(w http.ResponseWriter, r *http.Request) {
	appt, ok := h.loadAppointment(w, r)
	if !ok {
		return
	}
	var req RemindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.lifecycle.Remind(r.Context(), *appt, req.Kind, req.Patient, req.Provider); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *AppointmentsHandler) loadAppointment(w http.ResponseWriter, r *http.Request) (*appointment.Appointment, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		jsonError(w, "invalid appointment id", http.StatusBadRequest)
		return nil, false
	}
	appt, err := h.backend.GetAppointment(r.Context(), id)
	if err != nil {
		h.logger.Error("appointment lookup failed", "error", err, "appointment_id", id)
		jsonError(w, "appointment lookup failed", http.StatusBadGateway)
		return nil, false
	}
	return appt, true
}

func (h *AppointmentsHandler) writeLifecycleError(w http.ResponseWriter, err error, id uuid.UUID) {
	switch {
	case errors.Is(err, appointment.ErrCancellationReason):
		jsonError(w, "cancellation reason is required", http.StatusBadRequest)
	case errors.Is(err, booking.ErrNotCancellable),
		errors.Is(err, appointment.ErrTerminalStatus),
		errors.Is(err, appointment.ErrInvalidStatusTransition):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("lifecycle update failed", "error", err, "appointment_id", id)
		jsonError(w, "update failed", http.StatusBadGateway)
	}
}
