// Package db pkg/db/clean.go retention maintenance.
package db

import (
	"fmt"
	"log"
	"time"
)

// CleanOldData removes readings and resolved alerts older than the retention
// period. The pipeline itself never deletes; this is operator-scheduled
// maintenance. Open alerts are kept regardless of age.
func (db *DB) CleanOldData(retentionPeriod time.Duration) error {
	cutoff := time.Now().Add(-retentionPeriod)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToBeginTx, err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Printf("failed to rollback: %v", rbErr)
			}

			return
		}

		err = tx.Commit()
	}()

	// Only synced readings are eligible so the mirror never loses rows.
	if _, err = tx.Exec(
		"DELETE FROM readings WHERE server_timestamp < ? AND synced = 1",
		cutoff,
	); err != nil {
		return fmt.Errorf("%w readings: %w", ErrFailedToClean, err)
	}

	if _, err = tx.Exec(
		"DELETE FROM alerts WHERE resolved = 1 AND resolved_at < ?",
		cutoff,
	); err != nil {
		return fmt.Errorf("%w alerts: %w", ErrFailedToClean, err)
	}

	return nil
}
