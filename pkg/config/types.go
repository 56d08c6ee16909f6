package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wardmon/wardmon/pkg/alerting"
	"github.com/wardmon/wardmon/pkg/mirror"
	"github.com/wardmon/wardmon/pkg/notify"
)

const (
	defaultStaleAfter      = 5 * time.Minute
	defaultRetention       = 30 * 24 * time.Hour
	defaultCleanupInterval = time.Hour
)

// Duration wraps time.Duration so JSON configs can use "5m" strings.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %w", errInvalidDuration, err)
		}

		*d = Duration(parsed)

		return nil
	default:
		return errInvalidDuration
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// ServerConfig is the top-level configuration for the sensor server.
type ServerConfig struct {
	ListenAddr      string                 `json:"listen_addr"`
	DBPath          string                 `json:"db_path"`
	StaleAfter      Duration               `json:"stale_after"`
	Retention       Duration               `json:"retention"`
	CleanupInterval Duration               `json:"cleanup_interval"`
	ShutdownTimeout Duration               `json:"shutdown_timeout"`
	Thresholds      []alerting.Rule        `json:"thresholds,omitempty"`
	Webhooks        []notify.WebhookConfig `json:"webhooks,omitempty"`
	Mirror          mirror.Config          `json:"mirror"`
}

// Validate fills defaults and checks the required fields.
func (c *ServerConfig) Validate() error {
	if c.ListenAddr == "" {
		return errEmptyListenAddr
	}

	if c.DBPath == "" {
		return errEmptyDBPath
	}

	if c.StaleAfter == 0 {
		c.StaleAfter = Duration(defaultStaleAfter)
	}

	if c.Retention == 0 {
		c.Retention = Duration(defaultRetention)
	}

	if c.CleanupInterval == 0 {
		c.CleanupInterval = Duration(defaultCleanupInterval)
	}

	if len(c.Thresholds) == 0 {
		c.Thresholds = alerting.DefaultRules()
	}

	if err := alerting.ValidateRules(c.Thresholds); err != nil {
		return err
	}

	return c.Mirror.Validate()
}
