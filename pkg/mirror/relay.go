// Package mirror replicates committed readings to a remote document
// store so dashboards keep working when the local server is offline.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wardmon/wardmon/pkg/models"
)

const defaultPushTimeout = 10 * time.Second

//go:generate mockgen -destination=mock_mirror.go -package=mirror github.com/wardmon/wardmon/pkg/mirror Relay

// Relay pushes a single reading to the remote mirror. A nil error means
// the document is durably stored remotely. Errors wrapping ErrPermanent
// must not be retried; everything else is considered transient.
type Relay interface {
	Push(ctx context.Context, reading *models.Reading) error
	IsEnabled() bool
}

// Config controls both the relay endpoint and the sync worker pacing.
type Config struct {
	Enabled    bool              `json:"enabled"`
	BaseURL    string            `json:"base_url"`
	Collection string            `json:"collection"`
	Headers    map[string]string `json:"headers,omitempty"`
	Timeout    time.Duration     `json:"timeout"`
	Interval   time.Duration     `json:"interval"`
	BatchSize  int               `json:"batch_size"`
	RateLimit  float64           `json:"rate_limit"`
	Burst      int               `json:"burst"`
}

// UnmarshalJSON accepts duration fields as strings ("30s", "5m").
func (c *Config) UnmarshalJSON(data []byte) error {
	type Alias Config

	aux := &struct {
		Timeout  string `json:"timeout"`
		Interval string `json:"interval"`
		*Alias
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return fmt.Errorf("failed to parse mirror config: %w", err)
	}

	if aux.Timeout != "" {
		d, err := time.ParseDuration(aux.Timeout)
		if err != nil {
			return fmt.Errorf("invalid mirror timeout format: %w", err)
		}

		c.Timeout = d
	}

	if aux.Interval != "" {
		d, err := time.ParseDuration(aux.Interval)
		if err != nil {
			return fmt.Errorf("invalid mirror interval format: %w", err)
		}

		c.Interval = d
	}

	return nil
}

// Validate checks the relay endpoint settings.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.BaseURL == "" {
		return errEmptyBaseURL
	}

	if c.Collection == "" {
		return errEmptyCollection
	}

	return nil
}

// HTTPRelay mirrors readings into a REST document store with
// idempotent PUTs keyed by device and device timestamp.
type HTTPRelay struct {
	config Config
	client *http.Client
}

// NewHTTPRelay creates a relay for the configured document store.
func NewHTTPRelay(config Config) *HTTPRelay {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultPushTimeout
	}

	return &HTTPRelay{
		config: config,
		client: &http.Client{Timeout: timeout},
	}
}

func (r *HTTPRelay) IsEnabled() bool {
	return r.config.Enabled
}

// DocumentID returns the remote key for a reading. Re-pushing the same
// reading overwrites the same document, so duplicate deliveries are
// harmless.
func DocumentID(reading *models.Reading) string {
	return fmt.Sprintf("%s_%d", reading.DeviceID, reading.DeviceTimestamp)
}

// Push uploads one reading. 2xx responses succeed, 4xx responses wrap
// ErrPermanent, everything else (5xx, network failures) is transient.
func (r *HTTPRelay) Push(ctx context.Context, reading *models.Reading) error {
	if !r.config.Enabled {
		return ErrRelayDisabled
	}

	payload, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to marshal reading %d: %w", reading.ID, err)
	}

	url := fmt.Sprintf("%s/%s/%s", r.config.BaseURL, r.config.Collection, DocumentID(reading))

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create mirror request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	for key, value := range r.config.Headers {
		req.Header.Set(key, value)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("mirror push failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: status %d for %s", ErrPermanent, resp.StatusCode, DocumentID(reading))
	default:
		return fmt.Errorf("mirror push returned status %d", resp.StatusCode)
	}
}
