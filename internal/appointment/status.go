package appointment

import "errors"

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrTerminalStatus          = errors.New("appointment is in a terminal status")
	ErrCancellationReason      = errors.New("cancellation requires a non-empty reason")
)

// transitions is the full set of permitted status moves. Everything not
// listed here is rejected before any remote mutation is issued.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusCheckedIn:  {StatusInProgress, StatusNoShow},
	StatusInProgress: {StatusCompleted},
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// IsValid reports whether s is a known status value.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusInProgress,
		StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is permitted.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidateTransition rejects invalid moves with a classified error.
// Transitions out of a terminal status are a caller bug, never ignored.
func ValidateTransition(from, to Status) error {
	if from.IsTerminal() {
		return ErrTerminalStatus
	}
	if !to.IsValid() || !from.CanTransition(to) {
		return ErrInvalidStatusTransition
	}
	return nil
}

// CancellableByPatient reports whether a patient may cancel from s.
// Staff cancellations go through the same transition table.
func (s Status) CancellableByPatient() bool {
	return s == StatusPending || s == StatusConfirmed
}
