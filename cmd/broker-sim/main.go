package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"broker-sim/internal/broker"
	"broker-sim/internal/clock"
	"broker-sim/internal/httpapi"
	"broker-sim/internal/marketdata"
)

var (
	version   = "0.1.0"
	startTime = time.Now()
)

func main() {
	datasetFlag := flag.String("dataset", os.Getenv("REPLAY_DATASET_PATH"), "path to the replay dataset JSON file")
	portFlag := flag.String("port", os.Getenv("PORT"), "HTTP listen port")
	flag.Parse()

	port := *portFlag
	if port == "" {
		port = "8080"
	}

	log.Printf("starting broker-sim v%s", version)

	sysClock := clock.System{}
	provider, err := marketdata.NewProviderFromEnv(*datasetFlag, broker.DefaultConfig().BaseSpreadBps, sysClock)
	if err != nil {
		log.Fatalf("failed to initialize market data provider: %v", err)
	}

	cfg := broker.DefaultConfig()
	cfg.Seed = parseInt64Env("BROKER_SEED", cfg.Seed)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid broker config: %v", err)
	}

	svc := broker.NewService(cfg, provider, sysClock)

	server := httpapi.NewServer()
	server.RegisterHealth()
	server.RegisterAccounts(svc)
	server.RegisterQuotes(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go runMaintenanceLoop(ctx, svc)

	go func() {
		log.Printf("HTTP server listening on :%s", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("shutdown signal received, gracefully stopping...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	log.Printf("broker-sim stopped after %s", time.Since(startTime))
}

func parseInt64Env(key string, defaultValue int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		log.Printf("warning: invalid %s value '%s', using default %d", key, val, defaultValue)
		return defaultValue
	}
	return parsed
}

// runMaintenanceLoop periodically sweeps every known account's
// lifecycle maintenance (settlement, borrow fees, forced liquidation),
// the background-process analogue of the per-request refresh the
// execution engine already runs.
func runMaintenanceLoop(ctx context.Context, svc *broker.Service) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := svc.RunMaintenanceSweep(ctx, svc.AccountIDs()); err != nil {
				log.Printf("maintenance sweep error: %v", err)
			}
		}
	}
}
