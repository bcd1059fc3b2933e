package appointment

import (
	"errors"
	"testing"
)

func TestValidTransitions(t *testing.T) {
	valid := []struct {
		from, to Status
	}{
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusCancelled},
		{StatusConfirmed, StatusCheckedIn},
		{StatusConfirmed, StatusCancelled},
		{StatusConfirmed, StatusNoShow},
		{StatusCheckedIn, StatusInProgress},
		{StatusInProgress, StatusCompleted},
	}
	for _, tc := range valid {
		if err := ValidateTransition(tc.from, tc.to); err != nil {
			t.Fatalf("expected %s -> %s to be valid, got %v", tc.from, tc.to, err)
		}
	}
}

func TestInvalidTransitions(t *testing.T) {
	invalid := []struct {
		from, to Status
	}{
		{StatusPending, StatusCheckedIn},
		{StatusPending, StatusInProgress},
		{StatusPending, StatusCompleted},
		{StatusConfirmed, StatusInProgress},
		{StatusCheckedIn, StatusCompleted},
		{StatusCheckedIn, StatusCancelled},
		{StatusInProgress, StatusCancelled},
		{StatusInProgress, StatusNoShow},
	}
	for _, tc := range invalid {
		err := ValidateTransition(tc.from, tc.to)
		if !errors.Is(err, ErrInvalidStatusTransition) {
			t.Fatalf("expected %s -> %s to be rejected, got %v", tc.from, tc.to, err)
		}
	}
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	targets := []Status{StatusPending, StatusConfirmed, StatusCheckedIn, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow}
	for _, terminal := range []Status{StatusCompleted, StatusCancelled, StatusNoShow} {
		if !terminal.IsTerminal() {
			t.Fatalf("expected %s to be terminal", terminal)
		}
		for _, to := range targets {
			err := ValidateTransition(terminal, to)
			if !errors.Is(err, ErrTerminalStatus) {
				t.Fatalf("expected %s -> %s to fail as terminal, got %v", terminal, to, err)
			}
		}
	}
}

func TestSelfTransitionRejected(t *testing.T) {
	if err := ValidateTransition(StatusConfirmed, StatusConfirmed); err == nil {
		t.Fatal("expected self transition to be rejected")
	}
}

func TestCancellableByPatient(t *testing.T) {
	cancellable := map[Status]bool{
		StatusPending:    true,
		StatusConfirmed:  true,
		StatusCheckedIn:  false,
		StatusInProgress: false,
		StatusCompleted:  false,
		StatusCancelled:  false,
		StatusNoShow:     false,
	}
	for status, want := range cancellable {
		if got := status.CancellableByPatient(); got != want {
			t.Fatalf("CancellableByPatient(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestUnknownStatusRejected(t *testing.T) {
	if err := ValidateTransition(Status("archived"), StatusConfirmed); err == nil {
		t.Fatal("expected unknown status to be rejected")
	}
	if Status("archived").IsValid() {
		t.Fatal("expected archived to be invalid")
	}
}
