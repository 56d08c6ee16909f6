package models

import "time"

// DeviceStatus is derived from last_seen recency, never stored.
type DeviceStatus string

const (
	DeviceOnline DeviceStatus = "online"
	DeviceStale  DeviceStatus = "stale"
)

// Device is one registry row, created on first reading from a device_id and
// updated on every accepted reading afterwards.
type Device struct {
	DeviceID  string       `json:"device_id"`
	Location  string       `json:"location"`
	Status    DeviceStatus `json:"status"`
	FirstSeen time.Time    `json:"first_seen"`
	LastSeen  time.Time    `json:"last_seen"`
	Readings  int64        `json:"total_readings"`
}

// DeviceReadingCount is one row of the per-device statistics breakdown.
type DeviceReadingCount struct {
	DeviceID string    `json:"device_id"`
	Location string    `json:"location"`
	Count    int64     `json:"count"`
	LastSeen time.Time `json:"last_seen"`
}

// Statistics summarizes the store for the aggregate statistics endpoint.
type Statistics struct {
	DeviceCount      int64                `json:"total_devices"`
	ReadingCount     int64                `json:"total_readings"`
	ActiveAlertCount int64                `json:"active_alerts"`
	ReadingsByDevice []DeviceReadingCount `json:"readings_by_device"`
}
