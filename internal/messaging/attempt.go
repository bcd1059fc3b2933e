package messaging

import (
	"time"

	"github.com/google/uuid"
)

// Attempt statuses. An attempt row is written only when a send failed;
// retrying a delivered attempt is a no-op from the ledger's perspective.
const (
	StatusFailed    = "failed"
	StatusDelivered = "delivered"
)

// MaxAutoRetries is the automatic retry cap. At or beyond it an attempt is
// exhausted: the retry worker skips it, but an operator may still retry
// manually.
const MaxAutoRetries = 3

// NotificationAttempt is one failed-delivery ledger entry.
type NotificationAttempt struct {
	ID          uuid.UUID  `json:"id"`
	Phone       string     `json:"phone"`
	Body        string     `json:"body"`
	Template    string     `json:"template,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	RetryCount  int        `json:"retry_count"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	LastRetryAt *time.Time `json:"last_retry_at,omitempty"`
}

// Exhausted reports whether the attempt is past the automatic retry cap.
func (a NotificationAttempt) Exhausted() bool {
	return a.RetryCount >= MaxAutoRetries
}
