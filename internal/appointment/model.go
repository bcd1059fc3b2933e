package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a booked appointment.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusCheckedIn  Status = "checked_in"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// Type is the treatment category being booked.
type Type string

const (
	TypeInitialConsultation Type = "initial_consultation"
	TypeFollowUp            Type = "follow_up"
	TypeTreatmentSession    Type = "treatment_session"
	TypeLabReview           Type = "lab_review"
)

// Modality is how the consultation takes place.
type Modality string

const (
	ModalityInPerson Modality = "in_person"
	ModalityVideo    Modality = "video"
)

// MinAdvanceNotice is the earliest an appointment may be booked relative
// to now. The backend enforces the same rule authoritatively.
const MinAdvanceNotice = 24 * time.Hour

// StatusUpdate is the payload for a lifecycle mutation sent to the
// backend after local state-machine validation.
type StatusUpdate struct {
	Status             Status     `json:"status"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
}

// Appointment mirrors the backend's appointment record.
type Appointment struct {
	ID                 uuid.UUID  `json:"id"`
	PatientID          uuid.UUID  `json:"patient_id"`
	ProviderID         uuid.UUID  `json:"provider_id"`
	Type               Type       `json:"type"`
	Status             Status     `json:"status"`
	ScheduledAt        time.Time  `json:"scheduled_at"`
	DurationMinutes    int        `json:"duration_minutes"`
	Modality           Modality   `json:"modality"`
	Notes              string     `json:"notes,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
