package mirror

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/wardmon/wardmon/pkg/db"
)

const (
	defaultSyncInterval = 30 * time.Second
	defaultBatchSize    = 50
	defaultRateLimit    = 10
	defaultBurst        = 1

	initialBackoff = 2 * time.Second
	maxBackoff     = 5 * time.Minute
)

// Worker drains unsynced readings from the local store into the remote
// mirror. It wakes on a timer and on nudges from the ingest path, so
// fresh readings are mirrored promptly while a crash only delays sync
// until the next scan.
type Worker struct {
	store    db.Service
	relay    Relay
	limiter  *rate.Limiter
	interval time.Duration
	batch    int
	nudge    chan struct{}
	done     chan struct{}
	failures int
}

// NewWorker creates a sync worker over the given store and relay.
func NewWorker(config Config, store db.Service, relay Relay) *Worker {
	interval := config.Interval
	if interval == 0 {
		interval = defaultSyncInterval
	}

	batch := config.BatchSize
	if batch == 0 {
		batch = defaultBatchSize
	}

	limit := config.RateLimit
	if limit == 0 {
		limit = defaultRateLimit
	}

	burst := config.Burst
	if burst == 0 {
		burst = defaultBurst
	}

	return &Worker{
		store:    store,
		relay:    relay,
		limiter:  rate.NewLimiter(rate.Limit(limit), burst),
		interval: interval,
		batch:    batch,
		nudge:    make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Nudge wakes the worker without blocking the caller. A wake-up that is
// already pending is enough; extra nudges coalesce.
func (w *Worker) Nudge() {
	select {
	case w.nudge <- struct{}{}:
	default:
	}
}

// Start runs the sync loop until the context is canceled or Stop is
// called.
func (w *Worker) Start(ctx context.Context) error {
	if !w.relay.IsEnabled() {
		log.Printf("Mirror relay disabled, sync worker idle")
		<-ctx.Done()

		return ctx.Err()
	}

	log.Printf("Mirror sync worker started with interval %v", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case <-ticker.C:
		case <-w.nudge:
		}

		if err := w.syncOnce(ctx); err != nil {
			w.failures++
			delay := backoffDelay(w.failures)
			log.Printf("Mirror sync failed (attempt %d, retrying in %v): %v", w.failures, delay, err)

			if !sleepCtx(ctx, delay) {
				return ctx.Err()
			}

			w.Nudge()

			continue
		}

		w.failures = 0
	}
}

// Stop terminates the sync loop.
func (w *Worker) Stop(_ context.Context) error {
	close(w.done)
	return nil
}

// syncOnce drains the unsynced backlog in batches, oldest first. A
// transient push failure aborts the pass; permanently rejected readings
// are marked synced so they cannot wedge the queue.
func (w *Worker) syncOnce(ctx context.Context) error {
	for {
		readings, err := w.store.GetUnsyncedReadings(ctx, w.batch)
		if err != nil {
			return fmt.Errorf("failed to load unsynced readings: %w", err)
		}

		if len(readings) == 0 {
			return nil
		}

		for i := range readings {
			reading := &readings[i]

			if err := w.limiter.Wait(ctx); err != nil {
				return err
			}

			if err := w.relay.Push(ctx, reading); err != nil {
				if !errors.Is(err, ErrPermanent) {
					return err
				}

				log.Printf("Mirror permanently rejected reading %d (%s), skipping: %v",
					reading.ID, DocumentID(reading), err)
			}

			if err := w.store.MarkReadingSynced(ctx, reading.ID); err != nil {
				return fmt.Errorf("failed to mark reading %d synced: %w", reading.ID, err)
			}
		}

		if len(readings) < w.batch {
			return nil
		}
	}
}

func backoffDelay(failures int) time.Duration {
	delay := initialBackoff
	for i := 1; i < failures; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}

	return delay
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
