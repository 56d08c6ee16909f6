// Package db pkg/db/devices.go device registry and statistics queries.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/wardmon/wardmon/pkg/models"
)

// ListDevices returns all registry rows, most recently seen first. Status is
// derived from last_seen recency against staleAfter, never stored.
func (db *DB) ListDevices(ctx context.Context, staleAfter time.Duration) ([]models.Device, error) {
	const query = `
        SELECT d.device_id, d.location, d.first_seen, d.last_seen, COUNT(r.id)
        FROM devices d
        LEFT JOIN readings r ON d.device_id = r.device_id
        GROUP BY d.device_id
        ORDER BY d.last_seen DESC
    `

	rows, err := db.QueryContext(ctx, query) //nolint:rowserrcheck // rows.Err is checked below
	if err != nil {
		return nil, fmt.Errorf("%w devices: %w", ErrFailedToQuery, err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}(rows)

	now := time.Now()
	devices := make([]models.Device, 0)

	for rows.Next() {
		var d models.Device

		if err := rows.Scan(&d.DeviceID, &d.Location, &d.FirstSeen, &d.LastSeen, &d.Readings); err != nil {
			return nil, fmt.Errorf("%w device row: %w", ErrFailedToScan, err)
		}

		d.Status = models.DeviceOnline
		if staleAfter > 0 && now.Sub(d.LastSeen) > staleAfter {
			d.Status = models.DeviceStale
		}

		devices = append(devices, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w devices: %w", ErrFailedToQuery, err)
	}

	return devices, nil
}

// GetStatistics returns aggregate counts plus the per-device breakdown.
func (db *DB) GetStatistics(ctx context.Context) (*models.Statistics, error) {
	stats := &models.Statistics{
		ReadingsByDevice: make([]models.DeviceReadingCount, 0),
	}

	countQueries := []struct {
		query string
		dst   *int64
	}{
		{"SELECT COUNT(*) FROM devices", &stats.DeviceCount},
		{"SELECT COUNT(*) FROM readings", &stats.ReadingCount},
		{"SELECT COUNT(*) FROM alerts WHERE resolved = 0", &stats.ActiveAlertCount},
	}

	for _, c := range countQueries {
		if err := db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("%w statistics: %w", ErrFailedToQuery, err)
		}
	}

	const perDeviceSQL = `
        SELECT r.device_id, d.location, COUNT(*), d.last_seen
        FROM readings r
        INNER JOIN devices d ON d.device_id = r.device_id
        GROUP BY r.device_id
        ORDER BY COUNT(*) DESC
    `

	rows, err := db.QueryContext(ctx, perDeviceSQL) //nolint:rowserrcheck // rows.Err is checked below
	if err != nil {
		return nil, fmt.Errorf("%w per-device statistics: %w", ErrFailedToQuery, err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}(rows)

	for rows.Next() {
		var c models.DeviceReadingCount

		if err := rows.Scan(&c.DeviceID, &c.Location, &c.Count, &c.LastSeen); err != nil {
			return nil, fmt.Errorf("%w statistics row: %w", ErrFailedToScan, err)
		}

		stats.ReadingsByDevice = append(stats.ReadingsByDevice, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w per-device statistics: %w", ErrFailedToQuery, err)
	}

	return stats, nil
}
