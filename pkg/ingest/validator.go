// Package ingest pkg/ingest/validator.go payload normalization.
package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/wardmon/wardmon/pkg/models"
)

const unknownLocation = "unknown"

// Validate normalizes a raw ingestion payload into a Reading, assigning the
// server timestamp. It returns a tagged rejection error and never panics past
// this boundary. Unknown metric channels are preserved; unknown top-level
// fields were already dropped by JSON decoding.
func Validate(payload *models.SensorPayload, now time.Time) (*models.Reading, error) {
	if payload == nil || payload.DeviceID == "" {
		return nil, ErrMissingDeviceID
	}

	if payload.Sensors == nil {
		return nil, ErrMalformedMetrics
	}

	deviceTS, err := parseTimestamp(payload.Timestamp)
	if err != nil {
		return nil, err
	}

	metrics := make(map[string]float64, len(payload.Sensors))

	for channel, raw := range payload.Sensors {
		v, ok := numericValue(raw)
		if !ok {
			return nil, fmt.Errorf("%w: channel %q", ErrMalformedMetrics, channel)
		}

		metrics[channel] = v
	}

	location := payload.Location
	if location == "" {
		location = unknownLocation
	}

	return &models.Reading{
		DeviceID:          payload.DeviceID,
		Location:          location,
		DeviceTimestamp:   deviceTS,
		ServerTimestamp:   now.UTC(),
		Metrics:           metrics,
		AlertType:         models.AlertNone,
		ReportedAlertType: payload.AlertType,
		ReportedActive:    payload.AlertActive,
	}, nil
}

// parseTimestamp accepts the integer forms field devices actually send:
// JSON numbers, json.Number and numeric strings.
func parseTimestamp(raw any) (int64, error) {
	switch v := raw.(type) {
	case float64:
		return int64(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrMalformedTimestamp, raw)
		}

		return n, nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedTimestamp, v)
		}

		return n, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrMalformedTimestamp, raw)
	}
}

// numericValue reports the float value of a decoded metric. A present field
// that is not a number is malformed; missing fields never reach here.
func numericValue(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}

		return f, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
