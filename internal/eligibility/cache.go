// Package eligibility caches backend eligibility verdicts per patient and
// appointment type so the booking flow does not hammer the rules engine.
// Entries are immutable once cached; a re-fetch replaces the whole value.
package eligibility

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-portal/internal/appointment"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

// Checker runs the remote eligibility rules.
type Checker interface {
	CheckEligibility(ctx context.Context, patientID uuid.UUID, apptType appointment.Type) (Result, error)
}

// Store holds cached verdicts. Get reports a miss for expired entries.
type Store interface {
	Get(ctx context.Context, key string) (Result, bool, error)
	Set(ctx context.Context, key string, result Result) error
}

// Service fronts the remote checker with a TTL cache.
type Service struct {
	remote Checker
	store  Store
	logger *logging.Logger
}

// NewService creates an eligibility service over the given store.
func NewService(remote Checker, store Store, logger *logging.Logger) *Service {
	if remote == nil {
		panic("eligibility: remote checker required")
	}
	if store == nil {
		panic("eligibility: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{remote: remote, store: store, logger: logger}
}

// CheckEligibility returns the cached verdict when fresh, otherwise runs
// the remote check and caches the result. Remote failures propagate and
// leave the cache untouched so the next call retries fresh.
func (s *Service) CheckEligibility(ctx context.Context, patientID uuid.UUID, apptType appointment.Type) (Result, error) {
	key := cacheKey(patientID, apptType)
	if cached, ok, err := s.store.Get(ctx, key); err != nil {
		s.logger.Warn("eligibility cache read failed", "error", err, "key", key)
	} else if ok {
		return cached, nil
	}

	result, err := s.remote.CheckEligibility(ctx, patientID, apptType)
	if err != nil {
		return Result{}, fmt.Errorf("eligibility: remote check: %w", err)
	}
	if err := s.store.Set(ctx, key, result); err != nil {
		s.logger.Warn("eligibility cache write failed", "error", err, "key", key)
	}
	return result, nil
}

// IsEligibleFor is a non-blocking cache-only read for UI hinting. A miss
// defaults to eligible; booking re-validates against the backend, so this
// must never be used for enforcement.
func (s *Service) IsEligibleFor(ctx context.Context, patientID uuid.UUID, apptType appointment.Type) bool {
	cached, ok, err := s.store.Get(ctx, cacheKey(patientID, apptType))
	if err != nil || !ok {
		return true
	}
	return cached.Eligible
}

func cacheKey(patientID uuid.UUID, apptType appointment.Type) string {
	return patientID.String() + ":" + string(apptType)
}
