// Package db pkg/db/alerts.go alert queries.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/wardmon/wardmon/pkg/models"
)

const defaultAlertLimit = 100

// ListAlerts retrieves alerts matching the filter, newest first.
func (db *DB) ListAlerts(ctx context.Context, filter AlertFilter) ([]models.Alert, error) {
	var conditions []string

	var args []interface{}

	if filter.ActiveOnly {
		conditions = append(conditions, "resolved = 0")
	}

	if filter.DeviceID != "" {
		conditions = append(conditions, "device_id = ?")
		args = append(args, filter.DeviceID)
	}

	query := "SELECT id, device_id, location, alert_type, message, severity, created_at, resolved, resolved_at FROM alerts"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC, id DESC LIMIT ?"

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAlertLimit
	}

	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...) //nolint:rowserrcheck // rows.Err is checked below
	if err != nil {
		return nil, fmt.Errorf("%w alerts: %w", ErrFailedToQuery, err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}(rows)

	alerts := make([]models.Alert, 0)

	for rows.Next() {
		var (
			a          models.Alert
			alertType  string
			severity   string
			resolvedAt sql.NullTime
		)

		if err := rows.Scan(&a.ID, &a.DeviceID, &a.Location, &alertType, &a.Message,
			&severity, &a.CreatedAt, &a.Resolved, &resolvedAt); err != nil {
			return nil, fmt.Errorf("%w alert row: %w", ErrFailedToScan, err)
		}

		a.AlertType = models.AlertType(alertType)
		a.Severity = models.Severity(severity)

		if resolvedAt.Valid {
			a.ResolvedAt = &resolvedAt.Time
		}

		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w alerts: %w", ErrFailedToQuery, err)
	}

	return alerts, nil
}
