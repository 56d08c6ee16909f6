// Package ingest pkg/ingest/coordinator.go orchestrates the
// validate → evaluate → commit pipeline for incoming readings.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/wardmon/wardmon/pkg/alerting"
	"github.com/wardmon/wardmon/pkg/db"
	"github.com/wardmon/wardmon/pkg/models"
	"github.com/wardmon/wardmon/pkg/notify"
)

var errCommitFailed = errors.New("failed to commit reading")

// Result reports a committed ingestion to the transport layer.
type Result struct {
	ReadingID   int64                    `json:"record_id"`
	Reading     *models.Reading          `json:"-"`
	AlertActive bool                     `json:"alert_active"`
	Transitions []models.AlertTransition `json:"-"`
}

// Pipeline coordinates one ingestion per call. Validation failures return a
// tagged rejection with no store mutation; storage failures surface wrapped.
// Notification, mirror hand-off and live broadcast happen after the durable
// commit and never delay or fail the caller's acknowledgment.
//
// Repeated delivery of the same payload appends a duplicate reading; that is
// accepted behavior. Alert transitions stay idempotent because the store
// checks current alert state inside the commit transaction.
type Pipeline struct {
	store       db.Service
	rules       []alerting.Rule
	notifiers   []notify.AlertNotifier
	relay       RelayNudger
	broadcaster Broadcaster
	now         func() time.Time
}

// NewPipeline builds a coordinator. relay and broadcaster may be nil;
// notifiers may be empty.
func NewPipeline(
	store db.Service, rules []alerting.Rule, notifiers []notify.AlertNotifier,
	relay RelayNudger, broadcaster Broadcaster) *Pipeline {
	return &Pipeline{
		store:       store,
		rules:       rules,
		notifiers:   notifiers,
		relay:       relay,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// Ingest runs one payload through the pipeline. Once the commit has started
// it runs to completion; the caller's context is not consulted mid-commit.
func (p *Pipeline) Ingest(ctx context.Context, payload *models.SensorPayload) (*Result, error) {
	reading, err := Validate(payload, p.now())
	if err != nil {
		return nil, err
	}

	verdict := alerting.Evaluate(reading, p.rules)
	reading.AlertType = verdict.Primary()

	// The device's self-computed label is advisory only; disagreement is
	// worth surfacing in logs but never trusted for stored state.
	if reading.ReportedAlertType != "" && reading.ReportedAlertType != string(reading.AlertType) {
		log.Printf("Device %s reported alert_type %q, evaluator says %q",
			reading.DeviceID, reading.ReportedAlertType, reading.AlertType)
	}

	readingID, transitions, err := p.store.CommitReading(ctx, reading, verdict)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errCommitFailed, err)
	}

	reading.ID = readingID

	for _, t := range transitions {
		switch t.Kind {
		case models.TransitionOpened:
			log.Printf("Alert opened: %s for device %s (%s)", t.Alert.AlertType, t.Alert.DeviceID, t.Alert.Severity)
		case models.TransitionResolved:
			log.Printf("Alert resolved: %s for device %s", t.Alert.AlertType, t.Alert.DeviceID)
		}
	}

	if len(transitions) > 0 && len(p.notifiers) > 0 {
		go p.notifyTransitions(transitions)
	}

	if p.relay != nil {
		p.relay.Nudge()
	}

	if p.broadcaster != nil {
		p.broadcaster.BroadcastReading(reading)
	}

	return &Result{
		ReadingID:   readingID,
		Reading:     reading,
		AlertActive: verdict.Violating(),
		Transitions: transitions,
	}, nil
}

// notifyTransitions sends one webhook event per transition. Failures are
// logged and isolated; the ingestion response has already been decided.
func (p *Pipeline) notifyTransitions(transitions []models.AlertTransition) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, t := range transitions {
		event := transitionEvent(&t)

		for _, notifier := range p.notifiers {
			if !notifier.IsEnabled() {
				continue
			}

			if err := notifier.Alert(ctx, event); err != nil {
				if errors.Is(err, notify.ErrWebhookCooldown) {
					continue
				}

				log.Printf("Failed to send alert notification for %s/%s: %v",
					t.Alert.DeviceID, t.Alert.AlertType, err)
			}
		}
	}
}

func transitionEvent(t *models.AlertTransition) *notify.AlertEvent {
	event := &notify.AlertEvent{
		DeviceID:  t.Alert.DeviceID,
		Timestamp: t.Alert.CreatedAt.UTC().Format(time.RFC3339),
		Details: map[string]any{
			"location":   t.Alert.Location,
			"alert_type": string(t.Alert.AlertType),
			"severity":   string(t.Alert.Severity),
		},
	}

	switch t.Kind {
	case models.TransitionResolved:
		event.Level = notify.Info
		event.Title = fmt.Sprintf("Resolved: %s", t.Alert.AlertType)
		event.Message = fmt.Sprintf("Alert %s on device '%s' resolved", t.Alert.AlertType, t.Alert.DeviceID)

		if t.Alert.ResolvedAt != nil {
			event.Timestamp = t.Alert.ResolvedAt.UTC().Format(time.RFC3339)
			event.Details["resolved_at"] = t.Alert.ResolvedAt.UTC().Format(time.RFC3339)
		}
	default:
		event.Level = notify.Warning
		if t.Alert.Severity == models.SeverityCritical {
			event.Level = notify.Error
		}

		event.Title = fmt.Sprintf("Alert: %s", t.Alert.AlertType)
		event.Message = t.Alert.Message
	}

	return event
}
