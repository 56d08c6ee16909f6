// Package db pkg/db/interfaces.go
package db

import (
	"context"
	"time"

	"github.com/wardmon/wardmon/pkg/alerting"
	"github.com/wardmon/wardmon/pkg/models"
)

//go:generate mockgen -destination=mock_db.go -package=db github.com/wardmon/wardmon/pkg/db Service

// AlertFilter narrows ListAlerts results.
type AlertFilter struct {
	DeviceID   string `json:"device_id,omitempty"`
	ActiveOnly bool   `json:"active_only,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// Service represents all state store operations. Queries return empty results
// rather than errors when no matching data exists; only storage-layer
// failures are reported, wrapped in ErrDatabaseError.
type Service interface {
	Close() error

	// Commit path.

	// CommitReading atomically appends the reading, upserts the device
	// registry row and applies the alert verdict, returning the new reading
	// ID and the alert transitions that were applied. Calls for the same
	// device are serialized.
	CommitReading(ctx context.Context, reading *models.Reading, verdict alerting.Verdict) (int64, []models.AlertTransition, error)

	// Query operations.

	GetLatestReading(ctx context.Context, deviceID string) (*models.Reading, error)
	GetLatestReadings(ctx context.Context) ([]models.Reading, error)
	ListAlerts(ctx context.Context, filter AlertFilter) ([]models.Alert, error)
	ListDevices(ctx context.Context, staleAfter time.Duration) ([]models.Device, error)
	GetStatistics(ctx context.Context) (*models.Statistics, error)

	// Mirror bookkeeping.

	GetUnsyncedReadings(ctx context.Context, limit int) ([]models.Reading, error)
	MarkReadingSynced(ctx context.Context, id int64) error

	// Maintenance operations.

	CleanOldData(retentionPeriod time.Duration) error
}
