package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"carbon-auction-engine/internal/domain"
	"carbon-auction-engine/internal/ledger"
	"carbon-auction-engine/internal/orchestrator"
	"carbon-auction-engine/internal/storage"
	"carbon-auction-engine/internal/storage/memory"
	"carbon-auction-engine/internal/storage/migrations"
	pgstore "carbon-auction-engine/internal/storage/postgres"
)

func main() {
	// Parse flags
	endpoint := flag.String("endpoint", "", "Ledger gateway HTTP endpoint (required)")
	wsEndpoint := flag.String("ws-endpoint", "", "Ledger gateway WebSocket endpoint (required)")
	identity := flag.String("identity", "", "Caller identity for deposits and views")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	interval := flag.Duration("interval", 30*time.Second, "Fallback refresh interval")
	verbose := flag.Bool("verbose", false, "Verbose engine logging")

	flag.Parse()

	// Setup structured logger
	logger := log.New(os.Stderr, "[watch] ", log.LstdFlags)

	// Validate required flags
	if *endpoint == "" {
		logger.Fatal("--endpoint is required")
	}
	if *wsEndpoint == "" {
		logger.Fatal("--ws-endpoint is required")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Create stores
	var seqStore storage.SequenceStore = memory.NewSequenceStore()
	var statsStore storage.SettlementStatsStore = memory.NewSettlementStatsStore()

	if *postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("run postgres migrations: %v", err)
		}

		seqStore = pgstore.NewSequenceStore(pool)
		statsStore = pgstore.NewSettlementStatsStore(pool)
	}

	client := ledger.NewHTTPClient(*endpoint)

	engine := orchestrator.New(orchestrator.Options{
		Client:        client,
		Caller:        domain.Caller{Identity: *identity},
		SequenceStore: seqStore,
		StatsStore:    statsStore,
		Verbose:       *verbose,
	})

	// Subscribe to the event stream. Notifications only trigger
	// refreshes; truth still comes from the refresh's point reads.
	wsClient, err := ledger.NewWSClient(ctx, *wsEndpoint, nil)
	if err != nil {
		logger.Fatalf("connect websocket: %v", err)
	}
	defer wsClient.Close()

	events, err := wsClient.SubscribeEvents(ctx, ledger.EventsFilter{})
	if err != nil {
		logger.Fatalf("subscribe events: %v", err)
	}
	logger.Printf("Watching %s (fallback interval %v)", *wsEndpoint, *interval)

	// Refreshes are serialized: triggers arriving while one pass is in
	// flight are dropped, the next tick or event picks the state up.
	var refreshing atomic.Bool
	runRefresh := func(reason string) {
		if refreshing.Swap(true) {
			logger.Printf("refresh already in flight, skipping trigger (%s)", reason)
			return
		}
		defer refreshing.Store(false)

		result, err := engine.Refresh(ctx)
		if err != nil {
			logger.Printf("refresh failed (%s): %v", reason, err)
			return
		}
		logger.Printf("refreshed (%s): %d auctions, %d skipped, settled=%d volume=%d",
			reason, len(result.Auctions), len(result.Skipped),
			result.Stats.SettledCount, result.Stats.SettledVolume)
	}

	runRefresh("startup")

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Println("Shutdown complete")
			return
		case <-ticker.C:
			runRefresh("interval")
		case ev, ok := <-events:
			if !ok {
				logger.Println("event stream closed")
				return
			}
			runRefresh("event " + ev.Kind)
		}
	}
}
