package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carbon-auction-engine/internal/domain"
	"carbon-auction-engine/internal/ledger"
	"carbon-auction-engine/internal/orchestrator"
	"carbon-auction-engine/internal/storage"
	chstore "carbon-auction-engine/internal/storage/clickhouse"
	"carbon-auction-engine/internal/storage/memory"
	"carbon-auction-engine/internal/storage/migrations"
	pgstore "carbon-auction-engine/internal/storage/postgres"
	"carbon-auction-engine/internal/visibility"
)

func main() {
	// Parse flags
	endpoint := flag.String("endpoint", "", "Ledger gateway HTTP endpoint (required)")
	identity := flag.String("identity", "", "Caller identity for deposits and views")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for the id counter")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for stats history")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	verbose := flag.Bool("verbose", false, "Verbose engine logging")

	flag.Parse()

	// Setup structured logger
	logger := log.New(os.Stderr, "[refresh] ", log.LstdFlags)

	// Validate required flags
	if *endpoint == "" {
		logger.Fatal("--endpoint is required")
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

	if *clickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("connect to clickhouse: %v", err)
		}
		defer conn.Close()

		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			logger.Fatalf("run clickhouse migrations: %v", err)
		}

		statsStore = chstore.NewSettlementStatsStore(conn)
	}

	client := ledger.NewHTTPClient(*endpoint)

	engine := orchestrator.New(orchestrator.Options{
		Client:        client,
		Caller:        domain.Caller{Identity: *identity},
		SequenceStore: seqStore,
		StatsStore:    statsStore,
		Verbose:       *verbose,
	})

	start := time.Now()
	result, err := engine.Refresh(ctx)
	if err != nil {
		logger.Fatalf("refresh failed: %v", err)
	}
	elapsed := time.Since(start)

	for _, s := range result.Skipped {
		logger.Printf("skipped %s: %v", s.AuctionID, s.Err)
	}

	views := engine.AuctionViews()

	if *outputJSON {
		output, _ := json.MarshalIndent(struct {
			Auctions []visibility.AuctionView `json:"auctions"`
			Stats    domain.SettlementStats   `json:"stats"`
			Skipped  int                      `json:"skipped"`
		}{views, result.Stats, len(result.Skipped)}, "", "  ")
		fmt.Println(string(output))
		return
	}

	fmt.Printf("\n=== Refresh Summary ===\n")
	fmt.Printf("Auctions:        %d\n", len(result.Auctions))
	fmt.Printf("Skipped:         %d\n", len(result.Skipped))
	fmt.Printf("Settled Count:   %d\n", result.Stats.SettledCount)
	fmt.Printf("Settled Volume:  %d\n", result.Stats.SettledVolume)
	fmt.Printf("Elapsed:         %v\n", elapsed)

	for _, v := range views {
		bidder := v.HighestBidderDisplay
		if bidder == "" {
			bidder = "-"
		}
		fmt.Printf("  %s  seller=%s  bid=%d  bidder=%s  finalized=%v\n",
			v.ID, v.Seller, v.HighestBid, bidder, v.Finalized)
	}
}
