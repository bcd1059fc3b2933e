// Package backend wraps the managed clinic backend's RPC surface:
// appointment creation and mutation, slot availability, and eligibility
// checks. All persistence and rule enforcement lives on the other side of
// these calls.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-portal/internal/appointment"
	"github.com/wolfman30/clinic-portal/internal/availability"
	"github.com/wolfman30/clinic-portal/internal/eligibility"
	"github.com/wolfman30/clinic-portal/pkg/logging"
	"github.com/wolfman30/clinic-portal/pkg/retry"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "clinic-portal/0.1"
)

// Config controls how the backend client behaves.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	ReadRetry  retry.Config
	HTTPClient *http.Client
	Logger     *logging.Logger
	UserAgent  string
}

// Client talks to the managed backend over HTTP. Idempotent reads go
// through the bounded retry helper; the create mutation is issued exactly
// once per caller request.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	readRetry  retry.Config
	logger     *logging.Logger
	userAgent  string
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("backend: base URL is required")
	}
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	readRetry := cfg.ReadRetry
	if readRetry.MaxAttempts <= 0 {
		readRetry = retry.DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		readRetry:  readRetry,
		logger:     logger,
		userAgent:  userAgent,
	}, nil
}

// CreateAppointment issues the create RPC. Never auto-retried: on failure
// the user resubmits explicitly.
func (c *Client) CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (*appointment.Appointment, error) {
	var appt appointment.Appointment
	if err := c.do(ctx, http.MethodPost, "/rpc/appointments", req, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

// GetAppointment loads the current appointment record. Retried with
// backoff as an idempotent read.
func (c *Client) GetAppointment(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	path := "/rpc/appointments/" + id.String()
	var appt appointment.Appointment
	err := retry.Do(ctx, c.readRetry, func(ctx context.Context) error {
		appt = appointment.Appointment{}
		return c.do(ctx, http.MethodGet, path, nil, &appt)
	})
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// UpdateAppointment mutates status or cancellation fields. The state
// machine is validated at the call site before this is issued.
func (c *Client) UpdateAppointment(ctx context.Context, id uuid.UUID, req appointment.StatusUpdate) (*appointment.Appointment, error) {
	var appt appointment.Appointment
	path := "/rpc/appointments/" + id.String()
	if err := c.do(ctx, http.MethodPatch, path, req, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}

// FetchSlots lists the backend-generated time slots for a provider, day,
// and appointment type. Retried with backoff as an idempotent read.
func (c *Client) FetchSlots(ctx context.Context, providerID uuid.UUID, day time.Time, apptType appointment.Type) ([]availability.TimeSlot, error) {
	q := url.Values{}
	q.Set("provider", providerID.String())
	q.Set("date", day.UTC().Format("2006-01-02"))
	q.Set("type", string(apptType))

	var slots []availability.TimeSlot
	err := retry.Do(ctx, c.readRetry, func(ctx context.Context) error {
		slots = nil
		return c.do(ctx, http.MethodGet, "/rpc/slots?"+q.Encode(), nil, &slots)
	})
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// CheckEligibility runs the backend's eligibility rules for a patient and
// appointment type. Retried with backoff as an idempotent read.
func (c *Client) CheckEligibility(ctx context.Context, patientID uuid.UUID, apptType appointment.Type) (eligibility.Result, error) {
	q := url.Values{}
	q.Set("patient", patientID.String())
	q.Set("type", string(apptType))

	var result eligibility.Result
	err := retry.Do(ctx, c.readRetry, func(ctx context.Context) error {
		result = eligibility.Result{}
		return c.do(ctx, http.MethodGet, "/rpc/eligibility?"+q.Encode(), nil, &result)
	})
	if err != nil {
		return eligibility.Result{}, err
	}
	return result, nil
}

// Ping checks backend reachability for health reporting.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/rpc/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("backend: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp)
		if resp.StatusCode >= 500 {
			// Server-side trouble may be transient; let reads retry.
			return apiErr
		}
		return retry.Permanent(apiErr)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend: decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var envelope apiErrorEnvelope
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Message != "" {
		envelope.Error.StatusCode = resp.StatusCode
		return &envelope.Error
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       "unknown",
		Message:    strings.TrimSpace(string(data)),
	}
}
