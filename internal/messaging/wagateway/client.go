// Package wagateway wraps the self-hosted WhatsApp gateway's REST surface:
// text sends, instance connection state, and reconnects.
package wagateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/clinic-portal/pkg/logging"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "clinic-portal-wagateway/0.1"

	// StateOpen is the gateway's connected state for an instance.
	StateOpen = "open"
)

// ErrNotConnected is returned when a send is attempted with no live
// instance connection.
var ErrNotConnected = errors.New("wagateway: instance not connected")

// Config controls how the gateway client behaves.
type Config struct {
	BaseURL    string
	APIKey     string
	Instance   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
	UserAgent  string
}

// Client wraps the gateway REST endpoints for one WhatsApp instance.
type Client struct {
	baseURL    string
	apiKey     string
	instance   string
	httpClient *http.Client
	logger     *logging.Logger
	userAgent  string
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("wagateway: base URL is required")
	}
	if strings.TrimSpace(cfg.Instance) == "" {
		return nil, errors.New("wagateway: instance name is required")
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
		instance:   cfg.Instance,
		httpClient: httpClient,
		logger:     logger,
		userAgent:  userAgent,
	}, nil
}

// Instance returns the configured instance name.
func (c *Client) Instance() string {
	return c.instance
}

// SendText sends a WhatsApp text message through the instance.
func (c *Client) SendText(ctx context.Context, req SendTextRequest) (*SendResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	path := "/message/sendText/" + c.instance
	var resp SendResponse
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	if resp.Status == "ERROR" || (resp.MessageID == "" && resp.Status == "") {
		return nil, fmt.Errorf("wagateway: send rejected: %s", resp.ErrorText())
	}
	return &resp, nil
}

// ConnectionState reports the instance's current connection state.
func (c *Client) ConnectionState(ctx context.Context) (string, error) {
	path := "/instance/connectionState/" + c.instance
	var resp connectionStateResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.Instance.State, nil
}

// Connected reports whether the instance has a live outbound channel.
func (c *Client) Connected(ctx context.Context) (bool, error) {
	state, err := c.ConnectionState(ctx)
	if err != nil {
		return false, err
	}
	return state == StateOpen, nil
}

// Connect asks the gateway to (re)establish the instance connection.
func (c *Client) Connect(ctx context.Context) error {
	path := "/instance/connect/" + c.instance
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("wagateway: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("wagateway: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wagateway: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<14))
		return fmt.Errorf("wagateway: %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("wagateway: decode response: %w", err)
	}
	return nil
}
