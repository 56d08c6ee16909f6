// Package db pkg/db/readings.go reading queries and mirror bookkeeping.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/wardmon/wardmon/pkg/models"
)

const readingColumns = `id, device_id, location, device_timestamp, server_timestamp, metrics, alert_type, synced`

// serializeMetrics converts a channel map to a JSON string.
func serializeMetrics(metrics map[string]float64) (string, error) {
	if metrics == nil {
		return "{}", nil
	}

	data, err := json.Marshal(metrics)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// deserializeMetrics converts a JSON string back to a channel map.
func deserializeMetrics(data string) (map[string]float64, error) {
	metrics := make(map[string]float64)
	if data == "" {
		return metrics, nil
	}

	if err := json.Unmarshal([]byte(data), &metrics); err != nil {
		return nil, err
	}

	return metrics, nil
}

func scanReading(row *sql.Row) (*models.Reading, error) {
	var (
		r           models.Reading
		metricsJSON string
		alertType   string
	)

	err := row.Scan(&r.ID, &r.DeviceID, &r.Location, &r.DeviceTimestamp,
		&r.ServerTimestamp, &metricsJSON, &alertType, &r.Synced)
	if err != nil {
		return nil, err
	}

	r.AlertType = models.AlertType(alertType)

	r.Metrics, err = deserializeMetrics(metricsJSON)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

// GetLatestReading returns the most recent reading for a device, or nil when
// the device has never reported. Absence of data is not an error.
func (db *DB) GetLatestReading(ctx context.Context, deviceID string) (*models.Reading, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM readings
        WHERE device_id = ?
        ORDER BY server_timestamp DESC, id DESC
        LIMIT 1
    `, readingColumns)

	reading, err := scanReading(db.QueryRowContext(ctx, query, deviceID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("%w latest reading: %w", ErrFailedToQuery, err)
	}

	return reading, nil
}

// GetLatestReadings returns the most recent reading per device, newest first.
func (db *DB) GetLatestReadings(ctx context.Context) ([]models.Reading, error) {
	// Reading IDs are insertion-ordered, and server timestamps are assigned
	// monotonically by the committing process, so MAX(id) is the latest row.
	query := fmt.Sprintf(`
        SELECT %s FROM readings
        WHERE id IN (SELECT MAX(id) FROM readings GROUP BY device_id)
        ORDER BY server_timestamp DESC, id DESC
    `, readingColumns)

	return db.queryReadings(ctx, query)
}

// GetUnsyncedReadings returns readings not yet handed to the mirror, oldest
// first so the mirror preserves arrival order.
func (db *DB) GetUnsyncedReadings(ctx context.Context, limit int) ([]models.Reading, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM readings
        WHERE synced = 0
        ORDER BY id ASC
        LIMIT ?
    `, readingColumns)

	return db.queryReadings(ctx, query, limit)
}

// MarkReadingSynced flips the synced flag after a successful mirror hand-off.
func (db *DB) MarkReadingSynced(ctx context.Context, id int64) error {
	_, err := db.ExecContext(ctx, "UPDATE readings SET synced = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w reading sync flag: %w", ErrFailedToUpdate, err)
	}

	return nil
}

func (db *DB) queryReadings(ctx context.Context, query string, args ...interface{}) ([]models.Reading, error) {
	rows, err := db.QueryContext(ctx, query, args...) //nolint:rowserrcheck // rows.Err is checked below
	if err != nil {
		return nil, fmt.Errorf("%w readings: %w", ErrFailedToQuery, err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}(rows)

	readings := make([]models.Reading, 0)

	for rows.Next() {
		var (
			r           models.Reading
			metricsJSON string
			alertType   string
		)

		if err := rows.Scan(&r.ID, &r.DeviceID, &r.Location, &r.DeviceTimestamp,
			&r.ServerTimestamp, &metricsJSON, &alertType, &r.Synced); err != nil {
			return nil, fmt.Errorf("%w reading row: %w", ErrFailedToScan, err)
		}

		r.AlertType = models.AlertType(alertType)

		r.Metrics, err = deserializeMetrics(metricsJSON)
		if err != nil {
			return nil, fmt.Errorf("%w reading metrics: %w", ErrFailedToScan, err)
		}

		readings = append(readings, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w readings: %w", ErrFailedToQuery, err)
	}

	return readings, nil
}
