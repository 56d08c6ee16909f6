package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardmon/wardmon/pkg/models"
)

func testReading() *models.Reading {
	return &models.Reading{
		ID:              7,
		DeviceID:        "N1",
		Location:        "R1",
		DeviceTimestamp: 1000,
		ServerTimestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Metrics:         map[string]float64{"temperature": 25.3},
		AlertType:       models.AlertNone,
	}
}

func TestDocumentID(t *testing.T) {
	assert.Equal(t, "N1_1000", DocumentID(testReading()))
}

func TestPushSuccess(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotAuth   string
		gotBody   map[string]any
	)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	relay := NewHTTPRelay(Config{
		Enabled:    true,
		BaseURL:    ts.URL,
		Collection: "sensor_readings",
		Headers:    map[string]string{"Authorization": "Bearer token"},
	})

	err := relay.Push(context.Background(), testReading())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/sensor_readings/N1_1000", gotPath)
	assert.Equal(t, "Bearer token", gotAuth)
	assert.Equal(t, "N1", gotBody["device_id"])
	assert.Equal(t, float64(25.3), gotBody["metrics"].(map[string]any)["temperature"])
}

func TestPushClassifiesFailures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		permanent bool
	}{
		{"bad request is permanent", http.StatusBadRequest, true},
		{"conflict is permanent", http.StatusConflict, true},
		{"server error is transient", http.StatusInternalServerError, false},
		{"gateway timeout is transient", http.StatusGatewayTimeout, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer ts.Close()

			relay := NewHTTPRelay(Config{Enabled: true, BaseURL: ts.URL, Collection: "c"})

			err := relay.Push(context.Background(), testReading())
			require.Error(t, err)
			assert.Equal(t, tt.permanent, errors.Is(err, ErrPermanent))
		})
	}
}

func TestPushNetworkErrorIsTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	ts.Close() // Refuses connections from here on.

	relay := NewHTTPRelay(Config{Enabled: true, BaseURL: ts.URL, Collection: "c"})

	err := relay.Push(context.Background(), testReading())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrPermanent))
}

func TestPushDisabledRelay(t *testing.T) {
	relay := NewHTTPRelay(Config{Enabled: false})

	assert.False(t, relay.IsEnabled())

	err := relay.Push(context.Background(), testReading())
	assert.ErrorIs(t, err, ErrRelayDisabled)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, (&Config{}).Validate(), "disabled config needs nothing")
	assert.ErrorIs(t, (&Config{Enabled: true, Collection: "c"}).Validate(), errEmptyBaseURL)
	assert.ErrorIs(t, (&Config{Enabled: true, BaseURL: "http://x"}).Validate(), errEmptyCollection)
	assert.NoError(t, (&Config{Enabled: true, BaseURL: "http://x", Collection: "c"}).Validate())
}

func TestConfigUnmarshalDurations(t *testing.T) {
	var cfg Config

	err := json.Unmarshal([]byte(`{
		"enabled": true,
		"base_url": "https://store.example",
		"collection": "sensor_readings",
		"timeout": "15s",
		"interval": "2m",
		"batch_size": 25
	}`), &cfg)
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, 2*time.Minute, cfg.Interval)
	assert.Equal(t, 25, cfg.BatchSize)

	err = json.Unmarshal([]byte(`{"interval": "soon"}`), &cfg)
	assert.Error(t, err)
}
