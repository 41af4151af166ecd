package main

import (
	"log"

	"supplychain-telemetry/internal/config"
	"supplychain-telemetry/internal/httpserver"
	"supplychain-telemetry/internal/store"
)

// main boots the cloud tier: config → DB → schema → HTTP server.
func main() {
	cfg, err := config.LoadCloud()
	if err != nil {
		log.Fatal(err)
	}

	// Connect to durable storage using a connection pool.
	db, err := store.NewPostgresStore(cfg.DBURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	// Ensure the telemetry table and indices exist so `docker compose up`
	// is enough.
	if err := db.EnsureSchema(); err != nil {
		log.Fatal(err)
	}

	router := httpserver.NewRouter(cfg, db)

	log.Printf("[CLOUD] api listening on %s", cfg.HTTPAddr)
	log.Fatal(router.Run(cfg.HTTPAddr))
}
