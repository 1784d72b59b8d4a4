package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/zinc-sig/packhost/internal/output"
	"github.com/zinc-sig/packhost/internal/retry"
)

// Headers set on every delivery
const (
	EventHeader    = "X-Packhost-Event"
	DeliveryHeader = "X-Packhost-Delivery"
)

// Client posts publication results to a webhook endpoint
type Client struct {
	httpClient *http.Client
	config     *Config
	retry      *retry.Config
	logger     *log.Logger
}

// NewClient creates a webhook client. logger may be nil.
func NewClient(config *Config, retryConfig *retry.Config, logger *log.Logger) *Client {
	if config.Method == "" {
		config.Method = http.MethodPost
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if retryConfig == nil {
		retryConfig = retry.DefaultConfig()
	}

	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		config:     config,
		retry:      retryConfig,
		logger:     logger,
	}
}

// Deliver sends one publication result. Every attempt carries the same
// delivery id so receivers can drop duplicates.
func (c *Client) Deliver(ctx context.Context, result *output.Result) error {
	if result == nil {
		return fmt.Errorf("webhook: nil result")
	}
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	delivery := uuid.NewString()
	event := string(result.Status)

	attempts, err := retry.Do(ctx, c.retry, func() error {
		return c.post(ctx, body, event, delivery)
	}, func(err error, next time.Duration) {
		c.debug("webhook retry", "delivery", delivery, "err", err, "delay", next)
	})
	if err != nil {
		return fmt.Errorf("webhook %s failed after %d attempts: %w", event, attempts, err)
	}

	c.debug("webhook sent", "event", event, "delivery", delivery, "attempts", attempts)
	return nil
}

func (c *Client) post(ctx context.Context, body []byte, event, delivery string) error {
	req, err := http.NewRequestWithContext(ctx, c.config.Method, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set(EventHeader, event)
	req.Header.Set(DeliveryHeader, delivery)
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return retry.CheckStatus(resp.StatusCode)
}

func (c *Client) authorize(req *http.Request) {
	switch c.config.AuthType {
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+c.config.AuthToken)
	case "api-key":
		req.Header.Set("X-API-Key", c.config.AuthToken)
	}
}

func (c *Client) debug(msg string, keyvals ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, keyvals...)
	}
}
