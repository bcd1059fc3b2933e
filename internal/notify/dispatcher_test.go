package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-portal/internal/appointment"
)

type failingQueue struct {
	sent     []string
	failures int
	err      error
}

func (q *failingQueue) Send(ctx context.Context, body string) error {
	if q.err != nil && q.failures > 0 {
		q.failures--
		return q.err
	}
	q.sent = append(q.sent, body)
	return nil
}

func (q *failingQueue) Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error) {
	return nil, nil
}

func (q *failingQueue) Delete(ctx context.Context, receiptHandle string) error { return nil }

func dispatchEvent() Event {
	return Event{
		Kind:  EventCreated,
		Actor: ActorPatient,
		Appointment: appointment.Appointment{
			ID:          uuid.New(),
			Type:        appointment.TypeFollowUp,
			ScheduledAt: time.Date(2026, 3, 9, 14, 30, 0, 0, time.UTC),
		},
		Patient:  Contact{Name: "Ana", Phone: "+351900000001"},
		Provider: Contact{Name: "Dr. Reis", Phone: "+351900000002"},
	}
}

func TestDispatchEnqueuesPerRecipient(t *testing.T) {
	queue := NewMemoryQueue(8)
	d := NewDispatcher(queue, nil, nil)

	if err := d.Dispatch(context.Background(), dispatchEvent()); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	msgs, err := queue.Receive(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 jobs (patient + provider), got %d", len(msgs))
	}
	templates := map[string]bool{}
	for _, msg := range msgs {
		job, err := decodeJob(msg.Body)
		if err != nil {
			t.Fatalf("decode job: %v", err)
		}
		templates[job.Template] = true
		if job.Phone == "" || job.Body == "" {
			t.Fatalf("incomplete job: %+v", job)
		}
	}
	if !templates["created_patient"] || !templates["created_provider"] {
		t.Fatalf("expected both template variants, got %v", templates)
	}
}

func TestDispatchSkipsRecipientsWithoutPhone(t *testing.T) {
	queue := NewMemoryQueue(8)
	d := NewDispatcher(queue, nil, nil)

	e := dispatchEvent()
	e.Provider.Phone = ""
	if err := d.Dispatch(context.Background(), e); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	msgs, _ := queue.Receive(context.Background(), 10, 0)
	if len(msgs) != 1 {
		t.Fatalf("expected only the patient job, got %d", len(msgs))
	}
}

func TestDispatchOneRecipientFailureDoesNotBlockOthers(t *testing.T) {
	queue := &failingQueue{err: errors.New("queue full"), failures: 1}
	d := NewDispatcher(queue, nil, nil)

	err := d.Dispatch(context.Background(), dispatchEvent())
	if err == nil {
		t.Fatal("expected partial failure to surface")
	}
	if len(queue.sent) != 1 {
		t.Fatalf("second recipient should still be enqueued, got %d", len(queue.sent))
	}
}

func TestDispatchRejectsUnroutableEvents(t *testing.T) {
	d := NewDispatcher(NewMemoryQueue(1), nil, nil)

	e := dispatchEvent()
	e.Kind = EventRejected
	e.Actor = ActorPatient
	if err := d.Dispatch(context.Background(), e); err == nil {
		t.Fatal("expected no-recipient event to be rejected")
	}

	e.Kind = EventKind("bogus")
	if err := d.Dispatch(context.Background(), e); err == nil {
		t.Fatal("expected unknown event kind to be rejected")
	}
}
