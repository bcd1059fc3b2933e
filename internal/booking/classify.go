package booking

import (
	"errors"
	"strings"

	"github.com/wolfman30/clinic-portal/internal/backend"
)

// FailureReason classifies a rejected booking for user-facing messaging.
type FailureReason string

const (
	ReasonAdvanceNotice   FailureReason = "advance_notice"
	ReasonSlotConflict    FailureReason = "slot_conflict"
	ReasonSlotUnavailable FailureReason = "slot_unavailable"
	ReasonGeneric         FailureReason = "generic"
)

// userMessages is what the portal shows for each classified reason.
var userMessages = map[FailureReason]string{
	ReasonAdvanceNotice:   "Appointments must be booked at least 24 hours in advance. Please pick a later time.",
	ReasonSlotConflict:    "That time was just taken by another booking. Please choose a different slot.",
	ReasonSlotUnavailable: "That time slot is no longer available. Please choose a different slot.",
	ReasonGeneric:         "We couldn't complete your booking. Please try again.",
}

// UserMessage returns the portal-facing text for a reason.
func (r FailureReason) UserMessage() string {
	if msg, ok := userMessages[r]; ok {
		return msg
	}
	return userMessages[ReasonGeneric]
}

// Classify maps a create-appointment error onto a failure reason. The
// backend's error codes are preferred; message keywords are the fallback
// for older backend versions that only return text.
func Classify(err error) FailureReason {
	if err == nil {
		return ReasonGeneric
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case "advance_notice_violation":
			return ReasonAdvanceNotice
		case "slot_conflict", "double_booking":
			return ReasonSlotConflict
		case "slot_unavailable":
			return ReasonSlotUnavailable
		}
		return classifyMessage(apiErr.Message)
	}
	return classifyMessage(err.Error())
}

func classifyMessage(msg string) FailureReason {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "24 hour") || strings.Contains(lower, "advance notice"):
		return ReasonAdvanceNotice
	case strings.Contains(lower, "conflict") || strings.Contains(lower, "already booked") || strings.Contains(lower, "double"):
		return ReasonSlotConflict
	case strings.Contains(lower, "no longer available") || strings.Contains(lower, "unavailable"):
		return ReasonSlotUnavailable
	}
	return ReasonGeneric
}

// Error carries the classification alongside the underlying cause.
type Error struct {
	Reason FailureReason
	Err    error
}

func (e *Error) Error() string {
	return "booking: " + string(e.Reason) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage returns the portal-facing text for this failure.
func (e *Error) UserMessage() string { return e.Reason.UserMessage() }
