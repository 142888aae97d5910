package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"treasury/internal/amqp"
	"treasury/internal/analytics"
	"treasury/internal/cache"
	"treasury/internal/config"
	apphttp "treasury/internal/http"
	"treasury/internal/log"
	"treasury/internal/services"
	"treasury/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open treasury database", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	views, err := cache.NewStore(ctx, cache.Config{
		Backend:       cache.Backend(cfg.CacheBackend),
		MaxEntries:    cfg.CacheMaxEntries,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Error("Failed to initialize view cache", log.FieldError, err, "backend", cfg.CacheBackend)
		os.Exit(1)
	}
	defer views.Close()

	coordinator := cache.NewCoordinator(views)

	// With AMQP configured, mutations also go out on the wire so other
	// instances drop their views too.
	var notifier services.Notifier = coordinator
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		notifier = services.FanoutNotifier{coordinator, amqpClient}
		logger.Info("Async cache invalidation enabled", "exchange", cfg.AMQPExchange)
	}

	categorySvc := services.NewCategoryService(repo, repo, notifier)
	ledgerSvc := services.NewLedgerService(repo, repo, repo, notifier)
	balanceSvc := services.NewBalanceService(repo, repo, notifier)
	engine := analytics.NewEngine(repo, repo)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Categories: categorySvc,
		Ledger:     ledgerSvc,
		Balances:   balanceSvc,
		Analytics:  engine,
		Views:      views,
		ViewTTL:    cfg.CacheTTL,
		Logger:     logger,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting treasury server", "port", cfg.Port, "cache_backend", cfg.CacheBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
