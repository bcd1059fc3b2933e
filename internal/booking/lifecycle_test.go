package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-portal/internal/appointment"
	"github.com/wolfman30/clinic-portal/internal/notify"
)

type fakeUpdater struct {
	mu      sync.Mutex
	calls   int
	lastReq appointment.StatusUpdate
	err     error
}

func (f *fakeUpdater) UpdateAppointment(ctx context.Context, id uuid.UUID, req appointment.StatusUpdate) (*appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &appointment.Appointment{
		ID:                 id,
		Status:             req.Status,
		CancellationReason: req.CancellationReason,
		CancelledAt:        req.CancelledAt,
	}, nil
}

func confirmedAppointment() appointment.Appointment {
	return appointment.Appointment{
		ID:        uuid.New(),
		Status:    appointment.StatusConfirmed,
		Type:      appointment.TypeFollowUp,
		PatientID: uuid.New(),
	}
}

func TestCancelRequiresReason(t *testing.T) {
	updater := &fakeUpdater{}
	svc := NewLifecycle(updater, nil, nil)

	_, err := svc.Cancel(context.Background(), CancelRequest{
		Appointment: confirmedAppointment(),
		Actor:       notify.ActorPatient,
	})
	if !errors.Is(err, appointment.ErrCancellationReason) {
		t.Fatalf("expected reason requirement, got %v", err)
	}
	if updater.calls != 0 {
		t.Fatal("no remote call without a reason")
	}
}

func TestCancelStampsTimestampAndReason(t *testing.T) {
	updater := &fakeUpdater{}
	fixed := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	notifier := newFakeNotifier()
	svc := NewLifecycle(updater, notifier, nil).WithClock(func() time.Time { return fixed })

	appt, err := svc.Cancel(context.Background(), CancelRequest{
		Appointment: confirmedAppointment(),
		Reason:      "schedule conflict",
		Actor:       notify.ActorPatient,
		Patient:     notify.Contact{Name: "Ana", Phone: "+1"},
		Provider:    notify.Contact{Name: "Dr. Reis", Phone: "+2"},
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if appt.Status != appointment.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", appt.Status)
	}
	if updater.lastReq.CancellationReason != "schedule conflict" {
		t.Fatalf("reason not forwarded: %+v", updater.lastReq)
	}
	if updater.lastReq.CancelledAt == nil || !updater.lastReq.CancelledAt.Equal(fixed) {
		t.Fatalf("expected cancellation timestamp %s, got %v", fixed, updater.lastReq.CancelledAt)
	}

	e := notifier.waitForEvent(t)
	if e.Kind != notify.EventCancelled || e.Actor != notify.ActorPatient {
		t.Fatalf("expected patient-actor cancelled event, got %+v", e)
	}
}

func TestCancelTerminalStatusRejected(t *testing.T) {
	updater := &fakeUpdater{}
	svc := NewLifecycle(updater, nil, nil)

	appt := confirmedAppointment()
	appt.Status = appointment.StatusCompleted
	_, err := svc.Cancel(context.Background(), CancelRequest{
		Appointment: appt,
		Reason:      "too late",
		Actor:       notify.ActorAdmin,
	})
	if !errors.Is(err, appointment.ErrTerminalStatus) {
		t.Fatalf("expected terminal rejection, got %v", err)
	}
	if updater.calls != 0 {
		t.Fatal("terminal state must not reach the backend")
	}
}

func TestPatientCannotCancelAfterCheckIn(t *testing.T) {
	updater := &fakeUpdater{}
	svc := NewLifecycle(updater, nil, nil)

	appt := confirmedAppointment()
	appt.Status = appointment.StatusCheckedIn
	_, err := svc.Cancel(context.Background(), CancelRequest{
		Appointment: appt,
		Reason:      "changed my mind",
		Actor:       notify.ActorPatient,
	})
	if !errors.Is(err, ErrNotCancellable) {
		t.Fatalf("expected patient cancellation window to be closed, got %v", err)
	}
}

func TestRejectOnlyPendingAndStaff(t *testing.T) {
	updater := &fakeUpdater{}
	notifier := newFakeNotifier()
	svc := NewLifecycle(updater, notifier, nil)

	appt := confirmedAppointment()
	appt.Status = appointment.StatusPending

	if _, err := svc.Reject(context.Background(), CancelRequest{
		Appointment: appt,
		Reason:      "provider unavailable",
		Actor:       notify.ActorPatient,
	}); err == nil {
		t.Fatal("patients cannot reject appointment requests")
	}

	updated, err := svc.Reject(context.Background(), CancelRequest{
		Appointment: appt,
		Reason:      "provider unavailable",
		Actor:       notify.ActorProvider,
		Patient:     notify.Contact{Phone: "+1"},
	})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if updated.Status != appointment.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", updated.Status)
	}
	e := notifier.waitForEvent(t)
	if e.Kind != notify.EventRejected {
		t.Fatalf("expected rejected event, got %s", e.Kind)
	}

	confirmed := confirmedAppointment()
	if _, err := svc.Reject(context.Background(), CancelRequest{
		Appointment: confirmed,
		Reason:      "nope",
		Actor:       notify.ActorAdmin,
	}); err == nil {
		t.Fatal("only pending appointments can be rejected")
	}
}

func TestUpdateStatusValidatesMachine(t *testing.T) {
	updater := &fakeUpdater{}
	svc := NewLifecycle(updater, nil, nil)
	ctx := context.Background()

	appt := confirmedAppointment()
	updated, err := svc.UpdateStatus(ctx, appt, appointment.StatusCheckedIn)
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if updated.Status != appointment.StatusCheckedIn {
		t.Fatalf("expected checked_in, got %s", updated.Status)
	}

	if _, err := svc.UpdateStatus(ctx, appt, appointment.StatusCompleted); !errors.Is(err, appointment.ErrInvalidStatusTransition) {
		t.Fatalf("expected skip-ahead rejection, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, appt, appointment.StatusCancelled); !errors.Is(err, appointment.ErrCancellationReason) {
		t.Fatalf("expected cancellation to be routed through Cancel, got %v", err)
	}
}

func TestRemindValidation(t *testing.T) {
	notifier := newFakeNotifier()
	svc := NewLifecycle(&fakeUpdater{}, notifier, nil)
	ctx := context.Background()
	appt := confirmedAppointment()

	if err := svc.Remind(ctx, appt, notify.EventCreated, notify.Contact{Phone: "+1"}, notify.Contact{}); err == nil {
		t.Fatal("only reminder kinds are accepted")
	}

	cancelled := confirmedAppointment()
	cancelled.Status = appointment.StatusCancelled
	if err := svc.Remind(ctx, cancelled, notify.EventReminder24h, notify.Contact{Phone: "+1"}, notify.Contact{}); err == nil {
		t.Fatal("cancelled appointments must not get reminders")
	}

	if err := svc.Remind(ctx, appt, notify.EventReminder1h, notify.Contact{Phone: "+1"}, notify.Contact{}); err != nil {
		t.Fatalf("remind: %v", err)
	}
	e := notifier.waitForEvent(t)
	if e.Kind != notify.EventReminder1h || e.Actor != notify.ActorSystem {
		t.Fatalf("expected system reminder event, got %+v", e)
	}
}
