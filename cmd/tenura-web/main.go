// Command tenura-web serves the Tenura JSON API over the configured backing
// store.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opencargos/tenura/internal/config"
	"github.com/opencargos/tenura/internal/resolver"
	"github.com/opencargos/tenura/internal/server"
	"github.com/opencargos/tenura/internal/storage"
	"github.com/opencargos/tenura/internal/storage/postgres"
	"github.com/opencargos/tenura/internal/storage/sqlite"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	registry, appointments, err := openStores(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	if registry != nil {
		defer registry.Close()
	}
	if appointments != nil {
		defer appointments.Close()
	}

	// The ranking artifact is optional; a missing file serves an empty list.
	ranking := resolver.NewRanking(cfg.Storage.RankingCSVPath)
	if err := ranking.Start(); err != nil {
		log.Printf("Failed to watch ranking file (hot reload disabled): %v", err)
	} else {
		defer ranking.Stop()
	}

	svc := resolver.NewService(cfg, registry, appointments, ranking)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, err := server.Start(ctx, cfg, svc)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("Tenura API running at http://%s", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}

// openStores opens the backing stores for the configured engine. The "none"
// engine returns nil stores: the resolution core logs once and serves empty
// results, which keeps local development usable without a database.
func openStores(cfg *config.Config) (storage.RegistryStore, storage.AppointmentStore, error) {
	switch cfg.Storage.Engine {
	case "postgres":
		registry, err := postgres.NewRegistryStore(cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return registry, postgres.NewAppointmentStore(registry), nil
	case "sqlite":
		registry, err := sqlite.NewRegistryStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return registry, sqlite.NewAppointmentStore(registry), nil
	default:
		log.Printf("No storage engine configured (TENURA_STORAGE_ENGINE=%s), serving empty results", cfg.Storage.Engine)
		return nil, nil, nil
	}
}
