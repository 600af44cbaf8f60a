// Package main runs the forecast oversight HTTP service:
// - Datasets: CSV upload, listing, deletion
// - KPIs: recomputed per filter request over HTTP and WebSocket
// - Reporting: dashboard view, markdown report, filtered CSV export
// - Snapshots: KPI history, Kafka events, Prometheus metrics
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"

	"forecast-oversight/internal/api"
	"forecast-oversight/internal/config"
	"forecast-oversight/internal/dashboard"
	"forecast-oversight/internal/events"
	"forecast-oversight/internal/insights"
	"forecast-oversight/internal/observability"
	"forecast-oversight/internal/storage"
	chstore "forecast-oversight/internal/storage/clickhouse"
	"forecast-oversight/internal/storage/memory"
	"forecast-oversight/internal/storage/migrations"
	pgstore "forecast-oversight/internal/storage/postgres"
)

// Server holds all components of the service.
type Server struct {
	cfg     config.Config
	service *dashboard.Service
	logger  *log.Logger
}

// allStores holds the storage implementations.
type allStores struct {
	datasetStore  storage.DatasetStore
	snapshotStore storage.SnapshotStore
	backends      dashboard.Backends
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Defaults, then FORECAST_CONFIG file, then env vars
	cfg, err := config.Load(os.Getenv("FORECAST_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Parse flags (config as defaults)
	httpAddr := flag.String("http-addr", cfg.HTTPAddr, "HTTP listen address (API, /metrics, /status)")
	postgresDSN := flag.String("postgres-dsn", cfg.Storage.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.Storage.ClickHouseDSN, "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", cfg.Storage.UseMemory, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	kafkaBrokers := flag.String("kafka-brokers", strings.Join(cfg.Kafka.Brokers, ","), "Comma-separated Kafka brokers (empty disables events)")
	highGap := flag.Float64("high-gap-threshold", cfg.Thresholds.HighGap, "Predicted gap above which a year raises the alert")
	onTrack := flag.Float64("on-track-pct", cfg.Thresholds.OnTrackPct, "Performance % at or above which output is on track")
	watch := flag.Float64("watch-pct", cfg.Thresholds.WatchPct, "Performance % at or above which output is on watch")

	flag.Parse()

	cfg.HTTPAddr = *httpAddr
	cfg.Storage.PostgresDSN = *postgresDSN
	cfg.Storage.ClickHouseDSN = *clickhouseDSN
	cfg.Storage.UseMemory = *useMemory
	cfg.Kafka.Brokers = config.SplitList(*kafkaBrokers)
	cfg.Thresholds.HighGap = *highGap
	cfg.Thresholds.OnTrackPct = *onTrack
	cfg.Thresholds.WatchPct = *watch

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("%v (use --use-memory for in-memory storage)", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Create stores
	stores, cleanup, err := createStores(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	publisher, err := createPublisher(cfg.Kafka, logger)
	if err != nil {
		logger.Fatalf("Failed to create event publisher: %v", err)
	}
	defer publisher.Close()

	evaluator := insights.NewEvaluator(cfg.Thresholds.Insights())
	service := dashboard.NewService(
		stores.datasetStore,
		stores.snapshotStore,
		publisher,
		evaluator,
		log.New(os.Stdout, "[dashboard] ", log.LstdFlags|log.Lshortfile),
	).WithBackends(stores.backends)

	server := &Server{
		cfg:     cfg,
		service: service,
		logger:  logger,
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates the dataset and snapshot stores.
func createStores(ctx context.Context, cfg config.Storage, logger *log.Logger) (*allStores, func(), error) {
	if cfg.UseMemory {
		stores := &allStores{
			datasetStore:  memory.NewDatasetStore(),
			snapshotStore: memory.NewSnapshotStore(),
			backends:      dashboard.Backends{Datasets: "memory", Snapshots: "memory"},
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	applied, err := migrations.RunPostgresMigrations(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}
	for _, v := range applied {
		logger.Printf("Applied postgres migration %s", v)
	}

	// ClickHouse (the migrated connection is reused)
	chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate clickhouse: %w", err)
	}

	stores := &allStores{
		// PostgreSQL: uploaded datasets and their records
		datasetStore: pgstore.NewDatasetStore(pool),

		// ClickHouse: KPI snapshot analytics
		snapshotStore: chstore.NewSnapshotStore(chConn),

		backends: dashboard.Backends{Datasets: "postgres", Snapshots: "clickhouse"},
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// createPublisher returns a Kafka publisher, or a no-op one when no
// brokers are configured.
func createPublisher(cfg config.Kafka, logger *log.Logger) (events.Publisher, error) {
	if len(cfg.Brokers) == 0 {
		logger.Println("Kafka brokers not configured, events disabled")
		return events.NoopPublisher{}, nil
	}
	pub, err := events.NewKafkaPublisher(events.KafkaConfig{
		Brokers:       cfg.Brokers,
		UploadsTopic:  cfg.UploadsTopic,
		KPITopic:      cfg.KPITopic,
		SchemaVersion: cfg.SchemaVersion,
	}, log.New(os.Stdout, "[events] ", log.LstdFlags|log.Lshortfile))
	if err != nil {
		return nil, err
	}
	logger.Printf("Publishing events to %v", cfg.Brokers)
	return pub, nil
}

// Run serves HTTP until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("Starting forecast oversight server...")

	router := api.NewServer(s.service, log.New(os.Stdout, "[api] ", log.LstdFlags|log.Lshortfile)).Router()
	httpServer := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           handlers.LoggingHandler(os.Stdout, router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Create error channel for the listener goroutine
	errCh := make(chan error, 1)

	go func() {
		s.logger.Printf("Starting HTTP server on %s", s.cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	last := time.Now()

	// Wait for context cancellation or error
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Printf("HTTP shutdown: %v", err)
			}
			st := s.service.Stats()
			s.logger.Printf("Served %d uploads and %d KPI computations in %v",
				st.DatasetsUploaded, st.KPIComputations, st.Uptime.Truncate(time.Second))
			return ctx.Err()
		case err := <-errCh:
			return err
		case now := <-ticker.C:
			observability.AddUptime(now.Sub(last).Seconds())
			last = now
		}
	}
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
