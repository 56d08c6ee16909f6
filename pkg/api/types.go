// pkg/api/types.go

package api

import (
	"github.com/wardmon/wardmon/pkg/models"
)

// Response envelopes. Collection payloads always carry a count and an
// array, never null.

type ingestResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	RecordID    int64  `json:"record_id"`
	AlertActive bool   `json:"alert_active"`
}

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
}

type readingsResponse struct {
	Status string           `json:"status"`
	Count  int              `json:"count"`
	Data   []models.Reading `json:"data"`
}

type alertsResponse struct {
	Status string         `json:"status"`
	Count  int            `json:"count"`
	Alerts []models.Alert `json:"alerts"`
}

type devicesResponse struct {
	Status  string          `json:"status"`
	Count   int             `json:"count"`
	Devices []models.Device `json:"devices"`
}

type statisticsResponse struct {
	Status     string             `json:"status"`
	Statistics *models.Statistics `json:"statistics"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	CloudSync bool   `json:"cloud_sync"`
}
