package db

import (
	"context"
	"log"
	"time"
)

// Janitor periodically deletes synced readings and resolved alerts
// older than the retention period. Unsynced and unresolved rows are
// never touched.
type Janitor struct {
	store     Service
	interval  time.Duration
	retention time.Duration
	done      chan struct{}
}

func NewJanitor(store Service, interval, retention time.Duration) *Janitor {
	return &Janitor{
		store:     store,
		interval:  interval,
		retention: retention,
		done:      make(chan struct{}),
	}
}

func (j *Janitor) Start(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	log.Printf("Retention janitor started with interval %v, retention %v", j.interval, j.retention)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-j.done:
			return nil
		case <-ticker.C:
			if err := j.store.CleanOldData(j.retention); err != nil {
				log.Printf("Retention cleanup failed: %v", err)
			}
		}
	}
}

func (j *Janitor) Stop(_ context.Context) error {
	close(j.done)
	return nil
}
