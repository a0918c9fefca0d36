package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"knaito/fleapriceworker/config"
	"knaito/fleapriceworker/internal/adjuster"
	"knaito/fleapriceworker/internal/api"
	"knaito/fleapriceworker/internal/models"
	"knaito/fleapriceworker/internal/scanner"
	"knaito/fleapriceworker/internal/scheduler"
	"knaito/fleapriceworker/logger"
	"knaito/fleapriceworker/services/cache"
	"knaito/fleapriceworker/services/notifier"
	"knaito/fleapriceworker/services/publisher"
	"knaito/fleapriceworker/services/store"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("apply_mode", cfg.ApplyMode).
		Str("listing_url", cfg.ListingURL).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	// Create the listing scanner
	scan := scanner.NewScanner(scanner.Config{
		ListingURL: cfg.ListingURL,
		BaseURL:    cfg.BaseURL,
		CacheKey:   "listing",
		BlockTime:  int(cfg.FetchBlockTime.Seconds()),
	}, services.Cache)

	// Create the price applier per the configured mode
	applier, err := createApplier(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create applier")
	}
	if closer, ok := applier.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	adj := adjuster.New(applier, cfg.ItemDelay)

	// runBatch is what the scheduler fires once a day
	runBatch := func(ctx context.Context, products []models.Product, reduction, minPrice int) {
		batch := adj.AdjustBatch(ctx, products, reduction, minPrice)

		if err := services.Store.AppendLogs(ctx, batch.LogEntries()); err != nil {
			log.Error().Err(err).Msg("Failed to append execution logs")
		}

		payload, err := json.Marshal(batch)
		if err != nil {
			log.Error().Err(err).Msg("Failed to encode batch result")
		} else if err := services.Publisher.Publish(batch.BatchID, payload); err != nil {
			log.Error().Err(err).Msg("Failed to publish batch result")
		}

		if err := services.Notifier.NotifyBatch(batch.SummaryMessage()); err != nil {
			log.Error().Err(err).Msg("Failed to send batch notification")
		}
	}

	// Start the daily scheduler
	sched := scheduler.New(services.Store, runBatch, cfg.ScheduleCheckHour)
	go sched.Start(ctx)

	// Start the control API; the scheduler doubles as the manual-run trigger
	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.NewServer(scan, adj, sched, services.Store).Router(),
	}

	serverDone := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("Starting control API")
		serverDone <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
	case err := <-serverDone:
		if err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Control API exited with error")
		}
		cancel()
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Control API shutdown failed")
	}
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Store     store.Store
	Publisher publisher.Publisher
	Notifier  notifier.Notifier
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Store != nil {
		s.Store.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Initialize cache service
	cacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
	if cacheService == nil {
		return nil, fmt.Errorf("failed to create cache service")
	}
	services.Cache = cacheService

	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)

	// Initialize store
	redisStore := store.NewRedisStore(cfg.RedisAddr, cfg.RedisDB, cfg.RedisKeyPrefix)
	if redisStore == nil {
		return nil, fmt.Errorf("failed to create redis store")
	}
	services.Store = redisStore

	// Initialize publisher
	redisPublisher := publisher.NewRedisPublisher(
		ctx,
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamCount,
		cfg.RedisStreamMaxLength,
	)
	if redisPublisher == nil {
		return nil, fmt.Errorf("failed to create redis publisher")
	}
	services.Publisher = redisPublisher

	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	// Initialize notifier
	if cfg.TelegramToken != "" {
		tg, err := notifier.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			return nil, fmt.Errorf("failed to create telegram notifier: %w", err)
		}
		services.Notifier = tg
		logger.Info("Telegram notifications enabled for chat %d", cfg.TelegramChatID)
	} else {
		services.Notifier = notifier.NoopNotifier{}
	}

	return services, nil
}

// createApplier builds the price change mechanism for the configured mode
func createApplier(cfg *config.Config) (adjuster.Applier, error) {
	switch cfg.ApplyMode {
	case config.ApplyModeSimulate:
		return adjuster.NewSimulatedApplier(cfg.SimulatePassRate), nil
	case config.ApplyModeRemote:
		return adjuster.NewRemoteApplier(adjuster.DefaultEndpointCandidates(cfg.BaseURL)), nil
	case config.ApplyModeBrowser:
		return adjuster.NewBrowserApplier(cfg.Headless)
	default:
		return nil, fmt.Errorf("unknown apply mode %q", cfg.ApplyMode)
	}
}
