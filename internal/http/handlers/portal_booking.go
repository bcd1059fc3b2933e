package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-portal/internal/appointment"
	"github.com/wolfman30/clinic-portal/internal/availability"
	"github.com/wolfman30/clinic-portal/internal/booking"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

// PortalBookingHandler serves the patient-facing booking endpoints.
type PortalBookingHandler struct {
	orch        *booking.Orchestrator
	eligibility booking.EligibilityService
	slots       availability.SlotFetcher
	logger      *logging.Logger
}

// NewPortalBookingHandler creates the booking handler.
func NewPortalBookingHandler(orch *booking.Orchestrator, elig booking.EligibilityService, slots availability.SlotFetcher, logger *logging.Logger) *PortalBookingHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &PortalBookingHandler{
		orch:        orch,
		eligibility: elig,
		slots:       slots,
		logger:      logger,
	}
}

// GetEligibility returns the (cached) eligibility verdict for a patient
// and appointment type.
// GET /portal/eligibility?patient={uuid}&type={type}
func (h *PortalBookingHandler) GetEligibility(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(r.URL.Query().Get("patient"))
	if err != nil {
		jsonError(w, "invalid patient id", http.StatusBadRequest)
		return
	}
	apptType := appointment.Type(r.URL.Query().Get("type"))
	if apptType == "" {
		jsonError(w, "missing appointment type", http.StatusBadRequest)
		return
	}

	verdict, err := h.eligibility.CheckEligibility(r.Context(), patientID, apptType)
	if err != nil {
		h.logger.Error("eligibility check failed", "error", err, "patient_id", patientID, "type", apptType)
		jsonError(w, "eligibility check failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

// AvailabilityResponse is the slot set for one provider and day.
type AvailabilityResponse struct {
	ProviderID uuid.UUID               `json:"provider_id"`
	Date       string                  `json:"date"`
	Type       appointment.Type        `json:"type"`
	Slots      []availability.TimeSlot `json:"slots"`
}

// GetAvailability returns the backend-generated slot set for a provider,
// day, and appointment type.
// GET /portal/availability?provider={uuid}&date=2006-01-02&type={type}
func (h *PortalBookingHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	providerID, err := uuid.Parse(r.URL.Query().Get("provider"))
	if err != nil {
		jsonError(w, "invalid provider id", http.StatusBadRequest)
		return
	}
	day, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		jsonError(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	apptType := appointment.Type(r.URL.Query().Get("type"))
	if apptType == "" {
		jsonError(w, "missing appointment type", http.StatusBadRequest)
		return
	}

	query := availability.NewQuery(h.slots, h.logger)
	slots, err := query.Fetch(r.Context(), providerID, day, apptType)
	if err != nil {
		jsonError(w, "slot lookup failed", http.StatusBadGateway)
		return
	}
	if slots == nil {
		slots = []availability.TimeSlot{}
	}
	writeJSON(w, http.StatusOK, AvailabilityResponse{
		ProviderID: providerID,
		Date:       day.UTC().Format("2006-01-02"),
		Type:       apptType,
		Slots:      slots,
	})
}

// CreateAppointmentRequest is the portal's booking submission.
type CreateAppointmentRequest struct {
	Patient   booking.Party        `json:"patient"`
	Provider  booking.Party        `json:"provider"`
	Type      appointment.Type     `json:"type"`
	SlotStart time.Time            `json:"slot_start"`
	Modality  appointment.Modality `json:"modality,omitempty"`
	Notes     string               `json:"notes,omitempty"`
}

func (req *CreateAppointmentRequest) validate() string {
	if req.Patient.ID == uuid.Nil {
		return "missing patient id"
	}
	if req.Provider.ID == uuid.Nil {
		return "missing provider id"
	}
	if req.Type == "" {
		return "missing appointment type"
	}
	if req.SlotStart.IsZero() {
		return "missing slot_start"
	}
	return ""
}

// BookingFailureResponse carries the classified reason alongside the
// portal-facing message when a booking is rejected.
type BookingFailureResponse struct {
	Error       string   `json:"error"`
	Reason      string   `json:"reason"`
	UserMessage string   `json:"user_message"`
	Reasons     []string `json:"reasons,omitempty"`
}

// CreateAppointment walks the booking steps for one submission: check
// eligibility for the type, refetch the slot set for the chosen day,
// verify the slot is still in it, then confirm. The create call is
// issued at most once; a failure comes back classified and the patient
// resubmits explicitly.
// POST /portal/appointments
func (h *PortalBookingHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if msg := req.validate(); msg != "" {
		jsonError(w, msg, http.StatusBadRequest)
		return
	}

	flow := h.orch.NewFlow(req.Patient)
	verdict, err := flow.SelectType(r.Context(), req.Type)
	if err != nil {
		h.logger.Error("eligibility check failed during booking", "error", err, "patient_id", req.Patient.ID)
		jsonError(w, "eligibility check failed", http.StatusBadGateway)
		return
	}
	if err := flow.SelectProvider(req.Provider); err != nil {
		if errors.Is(err, booking.ErrNotEligible) {
			writeJSON(w, http.StatusForbidden, BookingFailureResponse{
				Error:       "patient is not eligible for this appointment type",
				Reason:      "not_eligible",
				UserMessage: eligibilityMessage(verdict.Reasons),
				Reasons:     verdict.Reasons,
			})
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	day := time.Date(req.SlotStart.UTC().Year(), req.SlotStart.UTC().Month(), req.SlotStart.UTC().Day(), 0, 0, 0, 0, time.UTC)
	if _, err := flow.SelectDate(r.Context(), day); err != nil {
		jsonError(w, "slot lookup failed", http.StatusBadGateway)
		return
	}
	if err := flow.SelectSlot(req.SlotStart); err != nil {
		writeJSON(w, http.StatusConflict, BookingFailureResponse{
			Error:       "slot is no longer available",
			Reason:      string(booking.ReasonSlotUnavailable),
			UserMessage: booking.ReasonSlotUnavailable.UserMessage(),
		})
		return
	}
	if req.Modality != "" {
		flow.SetModality(req.Modality)
	}
	if req.Notes != "" {
		flow.SetNotes(req.Notes)
	}

	appt, err := flow.Confirm(r.Context())
	if err != nil {
		var bookErr *booking.Error
		if errors.As(err, &bookErr) {
			writeJSON(w, failureStatus(bookErr.Reason), BookingFailureResponse{
				Error:       bookErr.Error(),
				Reason:      string(bookErr.Reason),
				UserMessage: bookErr.UserMessage(),
			})
			return
		}
		h.logger.Error("booking confirm failed", "error", err, "patient_id", req.Patient.ID)
		jsonError(w, "booking failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

func failureStatus(reason booking.FailureReason) int {
	switch reason {
	case booking.ReasonAdvanceNotice:
		return http.StatusUnprocessableEntity
	case booking.ReasonSlotConflict, booking.ReasonSlotUnavailable:
		return http.StatusConflict
	}
	return http.StatusBadGateway
}

func eligibilityMessage(reasons []string) string {
	if len(reasons) == 0 {
		return "You are not currently eligible for this appointment type."
	}
	return "You are not currently eligible: " + strings.Join(reasons, "; ")
}
