// Package availability translates (provider, date, appointment type) into
// the backend-generated slot list for the booking flow. Results are always
// replaced wholesale; loading, error, and a populated result set are
// mutually exclusive.
package availability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-portal/internal/appointment"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

// SlotFetcher fetches slots from the managed backend.
type SlotFetcher interface {
	FetchSlots(ctx context.Context, providerID uuid.UUID, day time.Time, apptType appointment.Type) ([]TimeSlot, error)
}

// Query holds the current slot set for one booking session.
type Query struct {
	fetcher SlotFetcher
	logger  *logging.Logger

	mu      sync.Mutex
	slots   []TimeSlot
	loading bool
	err     error
}

// NewQuery creates an availability query over the given fetcher.
func NewQuery(fetcher SlotFetcher, logger *logging.Logger) *Query {
	if fetcher == nil {
		panic("availability: slot fetcher required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Query{fetcher: fetcher, logger: logger}
}

// Fetch replaces the slot set for the given provider, day, and type. On
// failure the previous set is cleared and the error is surfaced, never a
// stale merge of old and new slots.
func (q *Query) Fetch(ctx context.Context, providerID uuid.UUID, day time.Time, apptType appointment.Type) ([]TimeSlot, error) {
	q.mu.Lock()
	q.loading = true
	q.err = nil
	q.slots = nil
	q.mu.Unlock()

	slots, err := q.fetcher.FetchSlots(ctx, providerID, day, apptType)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.loading = false
	if err != nil {
		q.slots = nil
		q.err = fmt.Errorf("availability: fetch slots: %w", err)
		q.logger.Error("slot fetch failed", "error", err, "provider_id", providerID, "date", day.UTC().Format("2006-01-02"))
		return nil, q.err
	}
	q.slots = slots
	return slots, nil
}

// Slots returns the current result set.
func (q *Query) Slots() []TimeSlot {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.slots
}

// Loading reports whether a fetch is in flight.
func (q *Query) Loading() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loading
}

// Err returns the error from the last fetch, if any.
func (q *Query) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

// Clear discards the current result set, e.g. when the selected
// appointment type changes and existing slots no longer apply.
func (q *Query) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.slots = nil
	q.err = nil
	q.loading = false
}

// HasAvailable reports whether any slot in the current set is bookable.
func (q *Query) HasAvailable() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, s := range q.slots {
		if s.Available {
			return true
		}
	}
	return false
}

// Contains reports whether the current set has an available slot starting
// at the given instant. Used to validate a slot choice before booking.
func (q *Query) Contains(start time.Time) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, s := range q.slots {
		if s.Available && s.Start.Equal(start) {
			return true
		}
	}
	return false
}
