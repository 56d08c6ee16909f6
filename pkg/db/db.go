// Package db pkg/db/db.go provides SQLite state storage for wardmon.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/wardmon/wardmon/pkg/alerting"
	"github.com/wardmon/wardmon/pkg/models"
)

const (
	// SQL statements for database initialization.
	createTablesSQL = `
	-- Sensor readings, one row per accepted sample. Immutable after insert
	-- except the synced flag.
	CREATE TABLE IF NOT EXISTS readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		device_id TEXT NOT NULL,
		location TEXT NOT NULL,
		device_timestamp INTEGER NOT NULL DEFAULT 0,
		server_timestamp TIMESTAMP NOT NULL,
		metrics TEXT NOT NULL DEFAULT '{}',
		alert_type TEXT NOT NULL DEFAULT 'none',
		synced BOOLEAN NOT NULL DEFAULT 0
	);

	-- Alert lifecycle, one row per violation event.
	CREATE TABLE IF NOT EXISTS alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		device_id TEXT NOT NULL,
		location TEXT NOT NULL,
		alert_type TEXT NOT NULL,
		message TEXT,
		severity TEXT NOT NULL DEFAULT 'warning',
		created_at TIMESTAMP NOT NULL,
		resolved BOOLEAN NOT NULL DEFAULT 0,
		resolved_at TIMESTAMP
	);

	-- Device registry.
	CREATE TABLE IF NOT EXISTS devices (
		device_id TEXT PRIMARY KEY,
		location TEXT,
		first_seen TIMESTAMP NOT NULL,
		last_seen TIMESTAMP NOT NULL
	);

	-- Indexes for better query performance
	CREATE INDEX IF NOT EXISTS idx_readings_device_time
		ON readings(device_id, server_timestamp);
	CREATE INDEX IF NOT EXISTS idx_readings_synced
		ON readings(synced);
	CREATE INDEX IF NOT EXISTS idx_alerts_device_time
		ON alerts(device_id, created_at);

	-- At most one unresolved alert per (device, type).
	CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_open
		ON alerts(device_id, alert_type) WHERE resolved = 0;

	PRAGMA foreign_keys=ON;
	`
)

// DB represents the database connection and operations.
type DB struct {
	*sql.DB

	// Per-device commit locks so alert state transitions for one device
	// are linearizable.
	mu          sync.Mutex
	deviceLocks map[string]*sync.Mutex
}

// New creates a new database connection and initializes the schema.
func New(dbPath string) (Service, error) {
	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedOpenDB, err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToEnableWAL, err)
	}

	db := &DB{
		DB:          sqlDB,
		deviceLocks: make(map[string]*sync.Mutex),
	}

	if err := db.initSchema(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToInit, err)
	}

	return db, nil
}

// initSchema creates the database tables if they don't exist.
func (db *DB) initSchema() error {
	_, err := db.Exec(createTablesSQL)

	return err
}

// deviceLock returns the commit lock for a device, creating it on first use.
func (db *DB) deviceLock(deviceID string) *sync.Mutex {
	db.mu.Lock()
	defer db.mu.Unlock()

	l, ok := db.deviceLocks[deviceID]
	if !ok {
		l = &sync.Mutex{}
		db.deviceLocks[deviceID] = l
	}

	return l
}

// CommitReading appends the reading, upserts the device registry row and
// applies the alert verdict in a single transaction. The per-device lock is
// held across the transaction so two concurrent readings from the same device
// cannot both observe "no open alert" and open a duplicate.
func (db *DB) CommitReading(
	ctx context.Context, reading *models.Reading, verdict alerting.Verdict) (int64, []models.AlertTransition, error) {
	lock := db.deviceLock(reading.DeviceID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrFailedToBeginTx, err)
	}
	defer func() { rollbackOnError(tx, err) }()

	var readingID int64

	readingID, err = db.insertReading(ctx, tx, reading)
	if err != nil {
		return 0, nil, err
	}

	err = db.upsertDevice(ctx, tx, reading)
	if err != nil {
		return 0, nil, err
	}

	var transitions []models.AlertTransition

	transitions, err = db.applyVerdict(ctx, tx, reading, verdict)
	if err != nil {
		return 0, nil, err
	}

	if err = tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrFailedToCommit, err)
	}

	return readingID, transitions, nil
}

func (*DB) insertReading(ctx context.Context, tx *sql.Tx, r *models.Reading) (int64, error) {
	metricsJSON, err := serializeMetrics(r.Metrics)
	if err != nil {
		return 0, fmt.Errorf("%w reading metrics: %w", ErrFailedToInsert, err)
	}

	result, err := tx.ExecContext(ctx, `
        INSERT INTO readings
            (device_id, location, device_timestamp, server_timestamp, metrics, alert_type, synced)
        VALUES (?, ?, ?, ?, ?, ?, 0)
    `, r.DeviceID, r.Location, r.DeviceTimestamp, r.ServerTimestamp, metricsJSON, string(r.AlertType))
	if err != nil {
		return 0, fmt.Errorf("%w reading: %w", ErrFailedToInsert, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w reading id: %w", ErrFailedToInsert, err)
	}

	return id, nil
}

// upsertDevice creates or updates the registry row. Location is last write
// wins; last_seen only ever moves forward, even if commits land out of order.
func (*DB) upsertDevice(ctx context.Context, tx *sql.Tx, r *models.Reading) error {
	var prev sql.NullString

	err := tx.QueryRowContext(ctx,
		"SELECT location FROM devices WHERE device_id = ?", r.DeviceID).Scan(&prev)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrFailedToQuery, err)
	}

	if prev.Valid && prev.String != r.Location {
		// Same id from two locations usually means a misconfigured
		// duplicate device.
		log.Printf("Device %s changed location from %q to %q", r.DeviceID, prev.String, r.Location)
	}

	_, err = tx.ExecContext(ctx, `
        INSERT INTO devices (device_id, location, first_seen, last_seen)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(device_id) DO UPDATE SET
            location = excluded.location,
            last_seen = MAX(devices.last_seen, excluded.last_seen)
    `, r.DeviceID, r.Location, r.ServerTimestamp, r.ServerTimestamp)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToUpsert, err)
	}

	return nil
}

// applyVerdict opens and resolves alert rows per the evaluator's verdict.
// Re-violating an already open alert is a no-op, as is a clean reading for a
// type with no open alert.
func (db *DB) applyVerdict(
	ctx context.Context, tx *sql.Tx, r *models.Reading, verdict alerting.Verdict) ([]models.AlertTransition, error) {
	var transitions []models.AlertTransition

	for _, alertType := range verdictOrder(verdict) {
		violating := verdict[alertType]

		open, err := db.openAlert(ctx, tx, r.DeviceID, alertType)
		if err != nil {
			return nil, err
		}

		switch {
		case violating && open == nil:
			opened, err := db.insertAlert(ctx, tx, r, alertType)
			if err != nil {
				return nil, err
			}

			transitions = append(transitions, models.AlertTransition{
				Kind:  models.TransitionOpened,
				Alert: *opened,
			})
		case !violating && open != nil:
			resolved, err := db.resolveAlert(ctx, tx, open, r)
			if err != nil {
				return nil, err
			}

			transitions = append(transitions, models.AlertTransition{
				Kind:  models.TransitionResolved,
				Alert: *resolved,
			})
		}
	}

	return transitions, nil
}

// verdictOrder returns verdict keys in primary-priority order so transition
// lists are deterministic.
func verdictOrder(verdict alerting.Verdict) []models.AlertType {
	types := make([]models.AlertType, 0, len(verdict))
	for t := range verdict {
		types = append(types, t)
	}

	rank := func(t models.AlertType) int {
		for i, p := range []models.AlertType{
			models.AlertDoorIntrusion,
			models.AlertPoorAirQuality,
			models.AlertHighTemperature,
			models.AlertLowTemperature,
			models.AlertHighHumidity,
		} {
			if t == p {
				return i
			}
		}

		return len(verdict) + 10
	}

	sort.Slice(types, func(i, j int) bool {
		ri, rj := rank(types[i]), rank(types[j])
		if ri != rj {
			return ri < rj
		}

		return types[i] < types[j]
	})

	return types
}

func (*DB) openAlert(ctx context.Context, tx *sql.Tx, deviceID string, alertType models.AlertType) (*models.Alert, error) {
	const query = `
        SELECT id, device_id, location, alert_type, message, severity, created_at
        FROM alerts
        WHERE device_id = ? AND alert_type = ? AND resolved = 0
    `

	var a models.Alert

	err := tx.QueryRowContext(ctx, query, deviceID, string(alertType)).Scan(
		&a.ID, &a.DeviceID, &a.Location, &a.AlertType, &a.Message, &a.Severity, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("%w open alert: %w", ErrFailedToQuery, err)
	}

	return &a, nil
}

func (*DB) insertAlert(ctx context.Context, tx *sql.Tx, r *models.Reading, alertType models.AlertType) (*models.Alert, error) {
	alert := &models.Alert{
		DeviceID:  r.DeviceID,
		Location:  r.Location,
		AlertType: alertType,
		Message:   alerting.Message(alertType, r),
		Severity:  models.SeverityFor(alertType),
		CreatedAt: r.ServerTimestamp,
	}

	result, err := tx.ExecContext(ctx, `
        INSERT INTO alerts (device_id, location, alert_type, message, severity, created_at, resolved)
        VALUES (?, ?, ?, ?, ?, ?, 0)
    `, alert.DeviceID, alert.Location, string(alert.AlertType), alert.Message, string(alert.Severity), alert.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w alert: %w", ErrFailedToInsert, err)
	}

	alert.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w alert id: %w", ErrFailedToInsert, err)
	}

	return alert, nil
}

func (*DB) resolveAlert(ctx context.Context, tx *sql.Tx, open *models.Alert, r *models.Reading) (*models.Alert, error) {
	resolvedAt := r.ServerTimestamp

	_, err := tx.ExecContext(ctx, `
        UPDATE alerts SET resolved = 1, resolved_at = ? WHERE id = ?
    `, resolvedAt, open.ID)
	if err != nil {
		return nil, fmt.Errorf("%w alert resolution: %w", ErrFailedToUpdate, err)
	}

	resolved := *open
	resolved.Resolved = true
	resolved.ResolvedAt = &resolvedAt

	return &resolved, nil
}

func rollbackOnError(tx *sql.Tx, err error) {
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("Error rolling back transaction: %v", rbErr)
		}
	}
}
