// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/wardmon/wardmon/pkg/api"
	"github.com/wardmon/wardmon/pkg/config"
	"github.com/wardmon/wardmon/pkg/db"
	"github.com/wardmon/wardmon/pkg/ingest"
	"github.com/wardmon/wardmon/pkg/lifecycle"
	"github.com/wardmon/wardmon/pkg/mirror"
	"github.com/wardmon/wardmon/pkg/notify"
)

func main() {
	configPath := flag.String("config", "/etc/wardmon/server.json", "Path to config file")
	flag.Parse()

	var cfg config.ServerConfig
	if err := config.LoadAndValidate(*configPath, &cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	notifiers := make([]notify.AlertNotifier, 0, len(cfg.Webhooks))

	for i := range cfg.Webhooks {
		if cfg.Webhooks[i].Enabled {
			notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.Webhooks[i]))
		}
	}

	relay := mirror.NewHTTPRelay(cfg.Mirror)
	worker := mirror.NewWorker(cfg.Mirror, store, relay)

	hub := api.NewHub()
	pipeline := ingest.NewPipeline(store, cfg.Thresholds, notifiers, worker, hub)

	server := api.NewServer(store, pipeline, hub, time.Duration(cfg.StaleAfter), relay.IsEnabled())

	janitor := db.NewJanitor(store, time.Duration(cfg.CleanupInterval), time.Duration(cfg.Retention))

	services := []lifecycle.Service{janitor}
	if relay.IsEnabled() {
		services = append(services, worker)
	}

	err = lifecycle.RunServer(context.Background(), &lifecycle.ServerOptions{
		ListenAddr:      cfg.ListenAddr,
		ServiceName:     "wardmon-server",
		Handler:         server.Router(),
		Services:        services,
		ShutdownTimeout: time.Duration(cfg.ShutdownTimeout),
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Server failed: %v", err)
	}
}
