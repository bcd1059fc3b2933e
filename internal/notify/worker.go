package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-portal/internal/messaging/wagateway"
	"github.com/wolfman30/clinic-portal/internal/observability/metrics"
	"github.com/wolfman30/clinic-portal/pkg/logging"
)

// Gateway is the outbound WhatsApp channel the workers send through.
type Gateway interface {
	SendText(ctx context.Context, req wagateway.SendTextRequest) (*wagateway.SendResponse, error)
	Connected(ctx context.Context) (bool, error)
	Connect(ctx context.Context) error
}

// FailureLedger records sends that did not succeed.
type FailureLedger interface {
	InsertFailed(ctx context.Context, phone, body, template, sendErr string) (uuid.UUID, error)
}

// SendWorker drains delivery jobs from the queue and sends them through
// the gateway. Any failure, including a panic while handling a job, ends
// up in the ledger rather than being lost.
type SendWorker struct {
	queue       queueClient
	gateway     Gateway
	ledger      FailureLedger
	logger      *logging.Logger
	metrics     *metrics.NotificationMetrics
	concurrency int
	waitSeconds int
}

// NewSendWorker constructs a worker pool over the queue.
func NewSendWorker(queue queueClient, gateway Gateway, ledger FailureLedger, logger *logging.Logger, m *metrics.NotificationMetrics) *SendWorker {
	if queue == nil {
		panic("notify: queue required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SendWorker{
		queue:       queue,
		gateway:     gateway,
		ledger:      ledger,
		logger:      logger,
		metrics:     m,
		concurrency: 2,
		waitSeconds: 5,
	}
}

// WithConcurrency sets how many goroutines drain the queue.
func (w *SendWorker) WithConcurrency(n int) *SendWorker {
	if n > 0 {
		w.concurrency = n
	}
	return w
}

// Run blocks until ctx is canceled.
func (w *SendWorker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}
	wg.Wait()
}

func (w *SendWorker) loop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		msgs, err := w.queue.Receive(ctx, 1, w.waitSeconds)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("notify queue receive failed", "error", err)
			continue
		}
		for _, msg := range msgs {
			w.handle(ctx, msg)
			if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
				w.logger.Error("notify queue delete failed", "error", err, "message_id", msg.ID)
			}
		}
	}
}

func (w *SendWorker) handle(ctx context.Context, msg queueMessage) {
	job, err := decodeJob(msg.Body)
	if err != nil {
		w.logger.Error("notify job decode failed", "error", err, "message_id", msg.ID)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("notify send panicked", "panic", r, "job_id", job.ID)
			w.recordFailure(ctx, job, fmt.Sprintf("panic during send: %v", r))
		}
	}()
	if err := w.send(ctx, job); err != nil {
		w.recordFailure(ctx, job, err.Error())
		return
	}
	w.metrics.ObserveSend("delivered")
	w.logger.Info("notification sent", "job_id", job.ID, "template", job.Template, "correlation_id", job.CorrelationID)
}

// send verifies the outbound channel before each attempt; a disconnected
// instance gets exactly one reconnect before the job is declared failed.
func (w *SendWorker) send(ctx context.Context, job deliveryJob) error {
	if w.gateway == nil {
		return wagateway.ErrNotConnected
	}
	connected, err := w.gateway.Connected(ctx)
	if err != nil || !connected {
		if connErr := w.gateway.Connect(ctx); connErr != nil {
			return fmt.Errorf("%w: reconnect failed: %v", wagateway.ErrNotConnected, connErr)
		}
		connected, err = w.gateway.Connected(ctx)
		if err != nil {
			return fmt.Errorf("%w: state check failed: %v", wagateway.ErrNotConnected, err)
		}
		if !connected {
			return wagateway.ErrNotConnected
		}
	}
	_, err = w.gateway.SendText(ctx, wagateway.SendTextRequest{
		Number:        job.Phone,
		Text:          job.Body,
		CorrelationID: job.CorrelationID,
	})
	return err
}

func (w *SendWorker) recordFailure(ctx context.Context, job deliveryJob, sendErr string) {
	w.metrics.ObserveSend("failed")
	if w.ledger == nil {
		w.logger.Error("notification failed with no ledger configured", "job_id", job.ID, "error", sendErr)
		return
	}
	id, err := w.ledger.InsertFailed(ctx, job.Phone, job.Body, job.Template, sendErr)
	if err != nil {
		w.logger.Error("failed-delivery ledger write failed", "error", err, "job_id", job.ID, "send_error", sendErr)
		return
	}
	w.logger.Warn("notification failed, recorded for retry", "attempt_id", id, "template", job.Template, "error", sendErr)
}
