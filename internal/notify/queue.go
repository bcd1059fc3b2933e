package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// queueClient is the transport between Dispatch and the send workers.
// Backed by an in-memory channel in single-process mode and SQS when the
// workers run separately.
type queueClient interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// deliveryJob is one recipient's send: an independent unit of work.
type deliveryJob struct {
	ID            string `json:"id"`
	Phone         string `json:"phone"`
	Body          string `json:"body"`
	Template      string `json:"template,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func encodeJob(job deliveryJob) (string, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("notify: encode delivery job: %w", err)
	}
	return string(data), nil
}

func decodeJob(body string) (deliveryJob, error) {
	var job deliveryJob
	if err := json.Unmarshal([]byte(body), &job); err != nil {
		return deliveryJob{}, fmt.Errorf("notify: decode delivery job: %w", err)
	}
	return job, nil
}
