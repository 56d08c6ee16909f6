package ingest

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardmon/wardmon/pkg/models"
)

func TestValidateRejections(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		payload *models.SensorPayload
		wantErr error
		wantTag string
	}{
		{
			name:    "nil payload",
			payload: nil,
			wantErr: ErrMissingDeviceID,
			wantTag: "missing_device_id",
		},
		{
			name:    "empty device id",
			payload: &models.SensorPayload{DeviceID: "", Timestamp: float64(1000), Sensors: map[string]any{}},
			wantErr: ErrMissingDeviceID,
			wantTag: "missing_device_id",
		},
		{
			name:    "missing sensors map",
			payload: &models.SensorPayload{DeviceID: "N1", Timestamp: float64(1000)},
			wantErr: ErrMalformedMetrics,
			wantTag: "malformed_metrics",
		},
		{
			name: "non-numeric metric value",
			payload: &models.SensorPayload{
				DeviceID:  "N1",
				Timestamp: float64(1000),
				Sensors:   map[string]any{"temperature": "warm"},
			},
			wantErr: ErrMalformedMetrics,
			wantTag: "malformed_metrics",
		},
		{
			name:    "missing timestamp",
			payload: &models.SensorPayload{DeviceID: "N1", Sensors: map[string]any{}},
			wantErr: ErrMalformedTimestamp,
			wantTag: "malformed_timestamp",
		},
		{
			name: "non-integer timestamp string",
			payload: &models.SensorPayload{
				DeviceID:  "N1",
				Timestamp: "yesterday",
				Sensors:   map[string]any{},
			},
			wantErr: ErrMalformedTimestamp,
			wantTag: "malformed_timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading, err := Validate(tt.payload, now)

			require.Error(t, err)
			assert.Nil(t, reading)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantTag, RejectionTag(err))
		})
	}
}

func TestValidateNormalizes(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	payload := &models.SensorPayload{
		DeviceID:  "ESP8266_PSMS_001",
		Location:  "Room_101",
		Timestamp: float64(123456789),
		Sensors: map[string]any{
			"temperature": 25.3,
			"humidity":    float64(55),
			"air_quality": json.Number("342"),
			"co2":         float64(410),
		},
		AlertType:   "none",
		AlertActive: false,
	}

	reading, err := Validate(payload, now)
	require.NoError(t, err)

	assert.Equal(t, "ESP8266_PSMS_001", reading.DeviceID)
	assert.Equal(t, "Room_101", reading.Location)
	assert.Equal(t, int64(123456789), reading.DeviceTimestamp)
	assert.Equal(t, now.UTC(), reading.ServerTimestamp)
	assert.Equal(t, time.UTC, reading.ServerTimestamp.Location())
	assert.Equal(t, models.AlertNone, reading.AlertType)

	// Unknown channels survive normalization.
	assert.Equal(t, map[string]float64{
		"temperature": 25.3,
		"humidity":    55,
		"air_quality": 342,
		"co2":         410,
	}, reading.Metrics)
}

func TestValidateTimestampForms(t *testing.T) {
	now := time.Now()

	for _, raw := range []any{float64(1000), json.Number("1000"), "1000", int64(1000), 1000} {
		payload := &models.SensorPayload{DeviceID: "N1", Timestamp: raw, Sensors: map[string]any{}}

		reading, err := Validate(payload, now)
		require.NoError(t, err, "timestamp form %T", raw)
		assert.Equal(t, int64(1000), reading.DeviceTimestamp)
	}
}

func TestValidateDefaults(t *testing.T) {
	now := time.Now()

	payload := &models.SensorPayload{DeviceID: "N1", Timestamp: float64(1), Sensors: map[string]any{}}

	reading, err := Validate(payload, now)
	require.NoError(t, err)

	assert.Equal(t, "unknown", reading.Location)
	assert.Empty(t, reading.Metrics)
	assert.False(t, reading.ReportedActive)
}

func TestValidateCarriesAdvisoryFields(t *testing.T) {
	payload := &models.SensorPayload{
		DeviceID:    "N1",
		Timestamp:   float64(1),
		Sensors:     map[string]any{},
		AlertType:   "door_intrusion",
		AlertActive: true,
	}

	reading, err := Validate(payload, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "door_intrusion", reading.ReportedAlertType)
	assert.True(t, reading.ReportedActive)
	assert.Equal(t, models.AlertNone, reading.AlertType, "advisory label must not leak into stored state")
}

func TestRejectionTagUnknownError(t *testing.T) {
	assert.Empty(t, RejectionTag(assert.AnError))
	assert.Empty(t, RejectionTag(nil))
}
