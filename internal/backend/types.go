package backend

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-portal/internal/appointment"
)

// CreateAppointmentRequest is the payload for the create RPC. The backend
// is the final authority on advance-notice and conflict rules.
type CreateAppointmentRequest struct {
	PatientID   uuid.UUID            `json:"patient_id"`
	ProviderID  uuid.UUID            `json:"provider_id"`
	Type        appointment.Type     `json:"type"`
	ScheduledAt time.Time            `json:"scheduled_at"`
	Modality    appointment.Modality `json:"modality"`
	Notes       string               `json:"notes,omitempty"`
}

// APIError is a structured error response from the backend.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: %s (code=%s, status=%d)", e.Message, e.Code, e.StatusCode)
}

type apiErrorEnvelope struct {
	Error APIError `json:"error"`
}
