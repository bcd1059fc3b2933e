package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wolfman30/clinic-portal/internal/appointment"
	"github.com/wolfman30/clinic-portal/internal/availability"
	"github.com/wolfman30/clinic-portal/internal/backend"
	"github.com/wolfman30/clinic-portal/internal/eligibility"
	"github.com/wolfman30/clinic-portal/internal/notify"
)

// Flow is one patient's booking session walking the ordered steps: pick
// a type, pick a provider, pick a slot, confirm. Earlier selections gate
// later ones, and changing an earlier selection invalidates everything
// downstream of it so a confirmation can never combine stale choices.
type Flow struct {
	o       *Orchestrator
	patient Party
	slots   *availability.Query

	mu         sync.Mutex
	apptType   appointment.Type
	typeChosen bool
	verdict    *eligibility.Result
	provider   *Party
	day        time.Time
	dayChosen  bool
	slotStart  time.Time
	slotChosen bool
	modality   appointment.Modality
	notes      string
}

// SelectType runs step one: choose the appointment type and fetch the
// eligibility verdict for it. The flow cannot advance past this step
// until a verdict has been fetched and it is positive; a remote failure
// leaves the step incomplete rather than assuming eligibility.
func (f *Flow) SelectType(ctx context.Context, t appointment.Type) (eligibility.Result, error) {
	f.mu.Lock()
	if f.typeChosen && f.apptType != t {
		// Provider, date, and slot choices were made against the old
		// type's rules and slot durations.
		f.provider = nil
		f.dayChosen = false
		f.slotChosen = false
		f.slots.Clear()
	}
	f.apptType = t
	f.typeChosen = true
	f.verdict = nil
	f.mu.Unlock()

	verdict, err := f.o.eligibility.CheckEligibility(ctx, f.patient.ID, t)
	if err != nil {
		return eligibility.Result{}, fmt.Errorf("booking: eligibility check: %w", err)
	}

	f.mu.Lock()
	f.verdict = &verdict
	f.mu.Unlock()
	return verdict, nil
}

// SelectProvider runs step two. Requires a positive eligibility verdict
// for the chosen type.
func (f *Flow) SelectProvider(p Party) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.typeChosen {
		return ErrStepIncomplete
	}
	if f.verdict == nil {
		return ErrStepIncomplete
	}
	if !f.verdict.Eligible {
		return ErrNotEligible
	}
	if f.provider == nil || f.provider.ID != p.ID {
		f.dayChosen = false
		f.slotChosen = false
		f.slots.Clear()
	}
	f.provider = &p
	return nil
}

// SelectDate fetches the slot set for a day. Changing the date drops any
// previously selected slot; the returned set replaces the old one
// wholesale even when the fetch fails.
func (f *Flow) SelectDate(ctx context.Context, day time.Time) ([]availability.TimeSlot, error) {
	f.mu.Lock()
	if f.provider == nil {
		f.mu.Unlock()
		return nil, ErrStepIncomplete
	}
	providerID := f.provider.ID
	apptType := f.apptType
	f.day = day
	f.dayChosen = true
	f.slotChosen = false
	f.mu.Unlock()

	return f.slots.Fetch(ctx, providerID, day, apptType)
}

// SelectSlot runs step three: pick a start instant from the current set.
func (f *Flow) SelectSlot(start time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.dayChosen {
		return ErrStepIncomplete
	}
	if !f.slots.Contains(start) {
		return ErrSlotNotAvailable
	}
	f.slotStart = start
	f.slotChosen = true
	return nil
}

// SetModality records how the visit takes place. Defaults to in-person.
func (f *Flow) SetModality(m appointment.Modality) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modality = m
}

// SetNotes records optional patient notes for the provider.
func (f *Flow) SetNotes(notes string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = notes
}

// Slots exposes the current availability set for rendering.
func (f *Flow) Slots() []availability.TimeSlot { return f.slots.Slots() }

// Confirm runs step four: validate locally, issue the create RPC exactly
// once, and on success hand the created event to the dispatcher without
// waiting on delivery. Failures come back as a classified *Error.
func (f *Flow) Confirm(ctx context.Context) (*appointment.Appointment, error) {
	f.mu.Lock()
	if f.provider == nil || !f.typeChosen {
		f.mu.Unlock()
		return nil, ErrStepIncomplete
	}
	if f.verdict == nil || !f.verdict.Eligible {
		f.mu.Unlock()
		return nil, ErrNotEligible
	}
	if !f.slotChosen {
		f.mu.Unlock()
		return nil, ErrSlotNotSelected
	}
	req := backend.CreateAppointmentRequest{
		PatientID:   f.patient.ID,
		ProviderID:  f.provider.ID,
		Type:        f.apptType,
		ScheduledAt: f.slotStart,
		Modality:    f.modality,
		Notes:       f.notes,
	}
	provider := *f.provider
	f.mu.Unlock()

	if req.ScheduledAt.Before(f.o.now().Add(appointment.MinAdvanceNotice)) {
		err := fmt.Errorf("booking: scheduled time violates the %s advance notice window", appointment.MinAdvanceNotice)
		f.o.metrics.ObserveFailed(string(ReasonAdvanceNotice))
		return nil, &Error{Reason: ReasonAdvanceNotice, Err: err}
	}

	appt, err := f.o.create(ctx, req)
	if err != nil {
		return nil, err
	}

	f.o.dispatchAsync(ctx, notify.Event{
		Kind:        notify.EventCreated,
		Actor:       notify.ActorPatient,
		Appointment: *appt,
		Patient:     f.patient.Contact(),
		Provider:    provider.Contact(),
	})
	return appt, nil
}
