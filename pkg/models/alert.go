package models

import "time"

// AlertType identifies a monitored condition. The set is closed; readings
// carry the primary type, alert rows carry exactly one type each.
type AlertType string

const (
	AlertNone            AlertType = "none"
	AlertPoorAirQuality  AlertType = "poor_air_quality"
	AlertHighTemperature AlertType = "high_temperature"
	AlertLowTemperature  AlertType = "low_temperature"
	AlertHighHumidity    AlertType = "high_humidity"
	AlertDoorIntrusion   AlertType = "door_intrusion"
)

// Severity tags an alert's urgency.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// SeverityFor maps an alert type to its severity. Security and air-quality
// conditions are treated as critical, the rest as warnings.
func SeverityFor(t AlertType) Severity {
	switch t {
	case AlertDoorIntrusion, AlertPoorAirQuality:
		return SeverityCritical
	default:
		return SeverityWarning
	}
}

// Alert is one threshold violation event, open until resolved. For a given
// (device_id, alert_type) pair at most one unresolved row exists at any time.
type Alert struct {
	ID         int64      `json:"id"`
	DeviceID   string     `json:"device_id"`
	Location   string     `json:"location"`
	AlertType  AlertType  `json:"alert_type"`
	Message    string     `json:"message"`
	Severity   Severity   `json:"severity"`
	CreatedAt  time.Time  `json:"created_at"`
	Resolved   bool       `json:"resolved"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// TransitionKind says what happened to an alert during a commit.
type TransitionKind string

const (
	TransitionOpened   TransitionKind = "opened"
	TransitionResolved TransitionKind = "resolved"
)

// AlertTransition reports one state change applied by the store so the
// coordinator can react (log, notify) after the commit.
type AlertTransition struct {
	Kind  TransitionKind `json:"kind"`
	Alert Alert          `json:"alert"`
}
