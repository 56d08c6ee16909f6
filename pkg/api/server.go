// pkg/api/server.go

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wardmon/wardmon/pkg/db"
	httpx "github.com/wardmon/wardmon/pkg/http"
	"github.com/wardmon/wardmon/pkg/ingest"
	"github.com/wardmon/wardmon/pkg/models"
)

// Server exposes the ingest and query surface over HTTP. Writes go
// through the ingest pipeline and are only acknowledged after the
// durable commit; reads hit the store directly.
type Server struct {
	router       *mux.Router
	store        db.Service
	pipeline     *ingest.Pipeline
	hub          *Hub
	staleAfter   time.Duration
	mirrorActive bool
}

// NewServer wires the routes. hub may be nil when no live feed is
// wanted.
func NewServer(store db.Service, pipeline *ingest.Pipeline, hub *Hub, staleAfter time.Duration, mirrorActive bool) *Server {
	s := &Server{
		router:       mux.NewRouter(),
		store:        store,
		pipeline:     pipeline,
		hub:          hub,
		staleAfter:   staleAfter,
		mirrorActive: mirrorActive,
	}
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/sensor-data", s.postSensorData).Methods("POST")
	s.router.HandleFunc("/api/latest-data", s.getLatestData).Methods("GET")
	s.router.HandleFunc("/api/alerts", s.getAlerts).Methods("GET")
	s.router.HandleFunc("/api/devices", s.getDevices).Methods("GET")
	s.router.HandleFunc("/api/statistics", s.getStatistics).Methods("GET")
	s.router.HandleFunc("/api/health", s.getHealth).Methods("GET")

	if s.hub != nil {
		s.router.HandleFunc("/api/live", s.hub.ServeWS).Methods("GET")
	}
}

// Router returns the handler for mounting into an http.Server. The
// middleware wraps the whole router so CORS preflights get answered
// even for method-restricted routes.
func (s *Server) Router() http.Handler {
	return httpx.CommonMiddleware(httpx.RequestIDMiddleware(s.router))
}

func (s *Server) postSensorData(w http.ResponseWriter, r *http.Request) {
	var payload models.SensorPayload

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, &errorResponse{
			Status: "error",
			Error:  "invalid JSON payload",
		})

		return
	}

	result, err := s.pipeline.Ingest(r.Context(), &payload)
	if err != nil {
		if tag := ingest.RejectionTag(err); tag != "" {
			writeJSON(w, http.StatusBadRequest, &errorResponse{
				Status: "error",
				Error:  err.Error(),
				Code:   tag,
			})

			return
		}

		log.Printf("Error processing sensor data: %v", err)
		writeJSON(w, http.StatusInternalServerError, &errorResponse{
			Status: "error",
			Error:  "failed to store sensor data",
		})

		return
	}

	writeJSON(w, http.StatusOK, &ingestResponse{
		Status:      "success",
		Message:     "Sensor data received and stored",
		RecordID:    result.ReadingID,
		AlertActive: result.AlertActive,
	})
}

func (s *Server) getLatestData(w http.ResponseWriter, r *http.Request) {
	deviceID := r.URL.Query().Get("device_id")

	var (
		readings []models.Reading
		err      error
	)

	if deviceID != "" {
		var reading *models.Reading

		reading, err = s.store.GetLatestReading(r.Context(), deviceID)
		if reading != nil {
			readings = []models.Reading{*reading}
		}
	} else {
		readings, err = s.store.GetLatestReadings(r.Context())
	}

	if err != nil {
		log.Printf("Error retrieving latest data: %v", err)
		writeStoreError(w)

		return
	}

	if readings == nil {
		readings = []models.Reading{}
	}

	writeJSON(w, http.StatusOK, &readingsResponse{
		Status: "success",
		Count:  len(readings),
		Data:   readings,
	})
}

func (s *Server) getAlerts(w http.ResponseWriter, r *http.Request) {
	filter := db.AlertFilter{
		DeviceID:   r.URL.Query().Get("device_id"),
		ActiveOnly: true,
	}

	if active := r.URL.Query().Get("active"); active != "" {
		filter.ActiveOnly = active == "true"
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, &errorResponse{
				Status: "error",
				Error:  "invalid limit",
			})

			return
		}

		filter.Limit = n
	}

	alerts, err := s.store.ListAlerts(r.Context(), filter)
	if err != nil {
		log.Printf("Error retrieving alerts: %v", err)
		writeStoreError(w)

		return
	}

	if alerts == nil {
		alerts = []models.Alert{}
	}

	writeJSON(w, http.StatusOK, &alertsResponse{
		Status: "success",
		Count:  len(alerts),
		Alerts: alerts,
	})
}

func (s *Server) getDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.store.ListDevices(r.Context(), s.staleAfter)
	if err != nil {
		log.Printf("Error retrieving devices: %v", err)
		writeStoreError(w)

		return
	}

	if devices == nil {
		devices = []models.Device{}
	}

	writeJSON(w, http.StatusOK, &devicesResponse{
		Status:  "success",
		Count:   len(devices),
		Devices: devices,
	})
}

func (s *Server) getStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStatistics(r.Context())
	if err != nil {
		log.Printf("Error retrieving statistics: %v", err)
		writeStoreError(w)

		return
	}

	writeJSON(w, http.StatusOK, &statisticsResponse{
		Status:     "success",
		Statistics: stats,
	})
}

func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, &healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		CloudSync: s.mirrorActive,
	})
}

func writeStoreError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, &errorResponse{
		Status: "error",
		Error:  "internal server error",
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		log.Printf("Error encoding response: %v", err)
	}
}
