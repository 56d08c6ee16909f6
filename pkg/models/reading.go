// Package models pkg/models/reading.go defines the shared entity types for the
// wardmon pipeline.
package models

import "time"

// SensorPayload is the wire format produced by field devices. Unknown
// top-level fields are ignored on decode; the metrics map is open-ended so
// new channels never hard-fail ingestion.
type SensorPayload struct {
	DeviceID    string         `json:"device_id"`
	Location    string         `json:"location"`
	Timestamp   any            `json:"timestamp"`
	Sensors     map[string]any `json:"sensors"`
	AlertType   string         `json:"alert_type,omitempty"`
	AlertActive bool           `json:"alert_active,omitempty"`
}

// Reading is one normalized sensor sample. Immutable after commit except the
// Synced flag, which the mirror relay flips on successful hand-off.
type Reading struct {
	ID              int64              `json:"id,omitempty"`
	DeviceID        string             `json:"device_id"`
	Location        string             `json:"location"`
	DeviceTimestamp int64              `json:"device_timestamp"`
	ServerTimestamp time.Time          `json:"server_timestamp"`
	Metrics         map[string]float64 `json:"metrics"`
	AlertType       AlertType          `json:"alert_type"`
	Synced          bool               `json:"synced"`

	// ReportedAlertType carries the device's own advisory label. It is never
	// persisted as authoritative; the evaluator's verdict overrides it.
	ReportedAlertType string `json:"-"`
	ReportedActive    bool   `json:"-"`
}

// Metric returns the named channel value and whether it was measured.
// A missing channel is "not measured", which is distinct from zero.
func (r *Reading) Metric(channel string) (float64, bool) {
	v, ok := r.Metrics[channel]
	return v, ok
}

// Canonical channel names for this deployment. The metrics map is not limited
// to these.
const (
	ChannelTemperature = "temperature"
	ChannelHumidity    = "humidity"
	ChannelAirQuality  = "air_quality"
	ChannelDistance    = "distance"
)
