// Package notify pkg/notify/interfaces.go

//go:generate mockgen -destination=mock_notify.go -package=notify github.com/wardmon/wardmon/pkg/notify AlertNotifier

package notify

import (
	"context"
)

// AlertNotifier defines the interface for alert notification implementations.
type AlertNotifier interface {
	// Alert sends an alert event through the service
	Alert(ctx context.Context, event *AlertEvent) error

	// IsEnabled returns whether the notifier is enabled
	IsEnabled() bool
}
