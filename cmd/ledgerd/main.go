package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/openrwa/rwa-ledger/internal/adapter"
	"github.com/openrwa/rwa-ledger/internal/api/middleware"
	"github.com/openrwa/rwa-ledger/internal/api/rest"
	"github.com/openrwa/rwa-ledger/internal/api/server"
	"github.com/openrwa/rwa-ledger/internal/config"
	"github.com/openrwa/rwa-ledger/internal/domain"
	"github.com/openrwa/rwa-ledger/internal/ledger"
	"github.com/openrwa/rwa-ledger/internal/logger"
	"github.com/openrwa/rwa-ledger/internal/messaging"
	"github.com/openrwa/rwa-ledger/internal/metrics"
	"github.com/openrwa/rwa-ledger/internal/notifier"
	"github.com/openrwa/rwa-ledger/internal/providers/jetstream"
	"github.com/openrwa/rwa-ledger/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadLedgerdConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "ledgerd",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting RWA ledger daemon")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Migrate and open the journal
	if err := store.Migrate(db); err != nil {
		logger.FatalCtx(ctx, "Failed to migrate journal schema", zap.Error(err))
	}
	journal := store.NewPGJournal(db)

	// Register Prometheus metrics
	ledgerMetrics := metrics.New()

	// Connect the event publishers: JetStream for stream consumers, webhooks
	// for registered clients
	var publishers []messaging.Publisher

	if cfg.NATS.URL != "" {
		jsPublisher, err := jetstream.NewPublisher(ctx, jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		})
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
		}
		publishers = append(publishers, jsPublisher)
		logger.InfoCtx(ctx, "Connected to NATS JetStream", zap.String("stream", cfg.NATS.StreamName))
	} else {
		logger.WarnCtx(ctx, "NATS URL not configured, stream publishing disabled")
	}

	if cfg.Notifier.ClientsPath != "" {
		clients, err := notifier.LoadClients(adapter.NewFileSystem(), cfg.Notifier.ClientsPath)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to load webhook clients",
				zap.Error(err),
				zap.String("path", cfg.Notifier.ClientsPath))
		}
		webhookNotifier := notifier.New(ctx, clients, notifier.Config{
			PoolSize:    cfg.Notifier.PoolSize,
			HTTPTimeout: cfg.Notifier.HTTPTimeout,
			MaxRetries:  cfg.Notifier.MaxRetries,
		}, notifier.WithMetrics(ledgerMetrics))
		publishers = append(publishers, webhookNotifier)
		logger.InfoCtx(ctx, "Loaded webhook clients",
			zap.Int("count", clients.Len()),
			zap.String("path", cfg.Notifier.ClientsPath))
	}

	var publisher messaging.Publisher
	if len(publishers) > 0 {
		publisher = messaging.NewFanout(publishers...)
		defer publisher.Close()
	}

	// Build the ledger engine and replay the journal
	params := ledger.Params{
		Registrar:        domain.Address(cfg.Ledger.Registrar),
		Attestor:         domain.Address(cfg.Ledger.Attestor),
		Oracle:           domain.Address(cfg.Ledger.Oracle),
		VoteKycLevel:     cfg.Ledger.VoteKycLevel,
		TransferKycLevel: cfg.Ledger.TransferKycLevel,
		HarvestKycLevel:  cfg.Ledger.HarvestKycLevel,
	}
	engineOpts := []ledger.Option{ledger.WithMetrics(ledgerMetrics)}
	if publisher != nil {
		engineOpts = append(engineOpts, ledger.WithPublisher(publisher))
	}
	engine, err := ledger.New(params, journal, engineOpts...)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create ledger engine", zap.Error(err))
	}
	if err := engine.Load(ctx); err != nil {
		logger.FatalCtx(ctx, "Failed to replay journal", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Ledger engine loaded", zap.Uint64("seq", engine.Seq()))

	// Block height clock
	heights, err := adapter.NewWallClockHeightSource(cfg.Chain.GenesisTime, cfg.Chain.BlockInterval, nil)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create height source", zap.Error(err))
	}

	// Create server config
	serverConfig := server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		MetricsPort:  cfg.Server.MetricsPort,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		Auth: middleware.AuthConfig{
			JWTPublicKey: cfg.Auth.JWTPublicKey,
			APIKeys:      cfg.Auth.APIKeys,
		},
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: cfg.Server.RateLimitRPS,
			Burst:             cfg.Server.RateLimitBurst,
		},
	}

	// Create and start server
	handler := rest.NewHandler(engine, heights, cfg.Chain.MaxPriceStaleness)
	srv := server.New(serverConfig, handler)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	logger.InfoCtx(shutdownCtx, "Shutting down server...")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.FatalCtx(shutdownCtx, "Server forced to shutdown", zap.Error(err))
	}

	// Use non-context logger for final message since original ctx is canceled
	logger.Info("Ledger daemon stopped")
}
