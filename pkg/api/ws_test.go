package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardmon/wardmon/pkg/models"
)

func dialHub(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
	})

	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	return conn
}

func TestHubBroadcastsCommittedReadings(t *testing.T) {
	hub := NewHub()

	ts := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer ts.Close()

	conn := dialHub(t, ts)

	// Give the hub a moment to register the client.
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()

		return len(hub.clients) == 1
	}, 2*time.Second, 10*time.Millisecond)

	reading := &models.Reading{
		ID:       3,
		DeviceID: "N1",
		Metrics:  map[string]float64{"temperature": 35},
	}
	hub.BroadcastReading(reading)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var event liveEvent
	require.NoError(t, json.Unmarshal(frame, &event))

	assert.Equal(t, "reading", event.Type)
	require.NotNil(t, event.Reading)
	assert.Equal(t, "N1", event.Reading.DeviceID)
	assert.Equal(t, float64(35), event.Reading.Metrics["temperature"])
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	hub := NewHub()

	ts := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer ts.Close()

	conn := dialHub(t, ts)
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()

		return len(hub.clients) == 0
	}, 2*time.Second, 10*time.Millisecond)

	// Broadcasting to an empty hub is a no-op, not a panic.
	hub.BroadcastReading(&models.Reading{DeviceID: "N1"})
}
