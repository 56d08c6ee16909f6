// Package ingest pkg/ingest/interfaces.go

//go:generate mockgen -destination=mock_ingest.go -package=ingest github.com/wardmon/wardmon/pkg/ingest RelayNudger,Broadcaster

package ingest

import (
	"github.com/wardmon/wardmon/pkg/models"
)

// RelayNudger wakes the mirror relay after a commit. The call must never
// block; the relay finds committed work through the store's synced flag.
type RelayNudger interface {
	Nudge()
}

// Broadcaster fans committed readings out to live subscribers.
type Broadcaster interface {
	BroadcastReading(reading *models.Reading)
}
