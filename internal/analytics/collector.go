package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const DefaultEndpoint = "https://www.google-analytics.com/mp/collect"

// ErrRejected is returned when the collector refuses an event with a 4xx.
var ErrRejected = errors.New("analytics collector rejected event")

// Event is one analytics hit.
type Event struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

type payload struct {
	ClientID string  `json:"client_id"`
	Events   []Event `json:"events"`
}

// CollectorConfig configures the relay.
type CollectorConfig struct {
	Endpoint      string
	MeasurementID string
	APISecret     string
	// RequestsPerSecond caps outbound traffic; zero means 10/s.
	RequestsPerSecond float64
	Burst             int
	MaxAttempts       int
	Backoff           time.Duration
	Timeout           time.Duration
}

// Collector sends sanitized events to the analytics endpoint. Without a
// measurement ID it is disabled and Send is a no-op.
type Collector struct {
	httpClient    *http.Client
	endpoint      string
	measurementID string
	apiSecret     string
	limiter       *rate.Limiter
	maxAttempts   int
	backoff       time.Duration
	logger        *log.Logger
}

// NewCollector builds a Collector with defaults for unset fields.
func NewCollector(cfg CollectorConfig, logger *log.Logger) *Collector {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 20
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 250 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Collector{
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		endpoint:      cfg.Endpoint,
		measurementID: cfg.MeasurementID,
		apiSecret:     cfg.APISecret,
		limiter:       rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		maxAttempts:   cfg.MaxAttempts,
		backoff:       cfg.Backoff,
		logger:        logger,
	}
}

// Enabled reports whether events are actually sent.
func (c *Collector) Enabled() bool {
	return c.measurementID != ""
}

// Send sanitizes ev and posts it on behalf of clientID. Transport errors and
// 5xx responses are retried; a 4xx returns ErrRejected.
func (c *Collector) Send(ctx context.Context, clientID string, ev Event) error {
	if !ValidEventName(ev.Name) {
		return fmt.Errorf("analytics: invalid event name %q", ev.Name)
	}
	if !c.Enabled() {
		return nil
	}
	ev.Params = Sanitize(ev.Params)

	body, err := json.Marshal(payload{ClientID: clientID, Events: []Event{ev}})
	if err != nil {
		return fmt.Errorf("analytics: encode event: %w", err)
	}

	q := url.Values{}
	q.Set("measurement_id", c.measurementID)
	q.Set("api_secret", c.apiSecret)
	reqURL := c.endpoint + "?" + q.Encode()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("analytics: rate limiter: %w", err)
		}

		status, err := c.post(ctx, reqURL, body)
		switch {
		case err == nil && status < 300:
			return nil
		case err == nil && status < 500:
			c.logger.Printf("analytics: event=%s rejected status=%d", ev.Name, status)
			return fmt.Errorf("%w: status %d", ErrRejected, status)
		case err == nil:
			lastErr = fmt.Errorf("analytics: collector status %d", status)
		default:
			lastErr = err
		}
		c.logger.Printf("analytics: event=%s attempt=%d error=%v", ev.Name, attempt, lastErr)

		if attempt < c.maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}
	}
	return lastErr
}

func (c *Collector) post(ctx context.Context, reqURL string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("analytics: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("analytics: send: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
