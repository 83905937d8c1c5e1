// cmd/rebuild/main.go
//
// Offline repair tool: recomputes every merchant's live inventory snapshot
// from listing state, then reports any merchant still drifting.
package main

import (
	"context"
	"database/sql"
	stdlog "log"
	"os"
	"time"

	_ "github.com/lib/pq"

	"snapit/internal/config"
	"snapit/internal/logger"
	"snapit/internal/projection"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		stdlog.Fatalf("failed to build logger: %v", err)
	}
	defer log.Sync()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to open database", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	store := projection.NewPostgresStore(db)
	svc := projection.NewService(store, log)

	start := time.Now()
	rebuilt, err := svc.RebuildAll(ctx)
	if err != nil {
		log.Fatal("rebuild failed", "error", err)
	}
	log.Info("rebuild complete", "merchants", rebuilt, "duration", time.Since(start))

	merchants, err := store.MerchantIDs(ctx)
	if err != nil {
		log.Fatal("failed to list merchants", "error", err)
	}

	drifting := 0
	for _, merchantID := range merchants {
		drift, err := svc.Drift(ctx, merchantID)
		if err != nil {
			log.Error("drift check failed", "merchant_id", merchantID, "error", err)
			continue
		}
		if drift {
			drifting++
			log.Warn("snapshot still drifting after rebuild", "merchant_id", merchantID)
		}
	}
	if drifting > 0 {
		log.Error("drift remains", "merchants", drifting)
		os.Exit(1)
	}
	log.Info("all snapshots consistent", "merchants", len(merchants))
}
