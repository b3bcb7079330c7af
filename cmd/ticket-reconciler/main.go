package main

import (
	"context"
	"errors"
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

	"github.com/feral-file/ff-ticket-mirror/internal/adapter"
	"github.com/feral-file/ff-ticket-mirror/internal/api/server"
	"github.com/feral-file/ff-ticket-mirror/internal/block"
	"github.com/feral-file/ff-ticket-mirror/internal/classifier"
	"github.com/feral-file/ff-ticket-mirror/internal/config"
	"github.com/feral-file/ff-ticket-mirror/internal/cursor"
	"github.com/feral-file/ff-ticket-mirror/internal/logger"
	"github.com/feral-file/ff-ticket-mirror/internal/messaging"
	"github.com/feral-file/ff-ticket-mirror/internal/poller"
	"github.com/feral-file/ff-ticket-mirror/internal/providers/ethereum"
	"github.com/feral-file/ff-ticket-mirror/internal/providers/jetstream"
	"github.com/feral-file/ff-ticket-mirror/internal/reconciler"
	"github.com/feral-file/ff-ticket-mirror/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadReconcilerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		Service:         "ticket-reconciler",
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"chain":      string(cfg.Ethereum.ChainID),
			"process_id": cfg.Reconciler.ProcessID,
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Ticket Reconciler",
		zap.String("processID", cfg.Reconciler.ProcessID),
		zap.String("ticketRegistry", cfg.Contracts.TicketRegistry),
		zap.String("marketplace", cfg.Contracts.Marketplace))

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}
	err = store.ConfigureConnectionPool(db,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
		cfg.Database.ConnMaxIdleTime)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Only one reconciler may advance a cursor
	lock, err := dataStore.AcquireProcessLock(ctx, cfg.Reconciler.ProcessID)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to acquire reconciler lock", zap.Error(err))
	}
	defer func() {
		releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer releaseCancel()
		if err := lock.Release(releaseCtx); err != nil {
			logger.Error(err, zap.String("component", "lock"))
		}
	}()

	// Initialize adapters
	clockAdapter := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	jcsAdapter := adapter.NewJCS()

	// Initialize ethereum client, preferring the websocket endpoint for new head notifications
	rpcURL := cfg.Ethereum.RPCURL
	if cfg.Ethereum.WebSocketURL != "" {
		rpcURL = cfg.Ethereum.WebSocketURL
	}
	ethDialer := adapter.NewEthClientDialer()
	dialedEthClient, err := ethDialer.Dial(ctx, rpcURL)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to dial Ethereum RPC", zap.Error(err))
	}
	adapterEthClient := ethereum.NewRateLimitedEthClient(dialedEthClient, cfg.Ethereum.RequestsPerSecond, cfg.Ethereum.RequestBurst)
	retry := ethereum.DefaultRetryConfig
	retry.MaxRetries = cfg.Ethereum.MaxRetries
	ethereumClient := ethereum.NewClient(cfg.Ethereum.ChainID, adapterEthClient, retry)
	defer ethereumClient.Close()

	// Abort startup when the ledger endpoint is unreachable or serves another chain
	verifyCtx, verifyCancel := context.WithTimeout(ctx, 30*time.Second)
	head, err := ethereumClient.VerifyConnection(verifyCtx)
	verifyCancel()
	if err != nil {
		logger.FatalCtx(ctx, "Failed to reach Ethereum RPC", zap.Error(err), zap.String("chain", string(cfg.Ethereum.ChainID)))
	}
	logger.InfoCtx(ctx, "Connected to Ethereum RPC", zap.Uint64("head", head))

	// Initialize block provider
	blockProvider := block.NewBlockProvider(
		ethereum.NewEthereumBlockFetcher(adapterEthClient, clockAdapter),
		block.Config{
			TTL:         cfg.Ethereum.BlockHeadTTL,
			StaleWindow: cfg.Ethereum.BlockHeadStaleWindow,
			Workers:     cfg.Reconciler.TimestampWorkers,
		},
		clockAdapter)

	// Initialize NATS publisher
	var publisher messaging.Publisher
	if cfg.NATS.URL == "" {
		logger.InfoCtx(ctx, "NATS URL not configured, change notifications disabled")
		publisher = messaging.NewNoopPublisher()
	} else {
		publisher, err = jetstream.NewPublisher(jetstream.Config{
			URL:            cfg.NATS.URL,
			SubjectPrefix:  cfg.NATS.SubjectPrefix,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		}, adapter.NewNatsJetStream(), jsonAdapter)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create NATS publisher", zap.Error(err), zap.String("url", cfg.NATS.URL))
		}
		logger.InfoCtx(ctx, "Connected to NATS JetStream")
	}
	defer publisher.Close()

	// Wire the reconciler
	eventClassifier := classifier.New(classifier.Config{
		TicketRegistry: cfg.Contracts.TicketRegistryAddress(),
		Marketplace:    cfg.Contracts.MarketplaceAddress(),
	})
	cursorManager := cursor.NewManager(cursor.Config{
		ProcessID:   cfg.Reconciler.ProcessID,
		StartBlock:  cfg.Reconciler.StartBlock,
		StartOffset: cfg.Reconciler.StartOffset,
	}, dataStore, blockProvider)
	ticketReconciler := reconciler.New(dataStore, cursorManager, blockProvider, jsonAdapter, jcsAdapter)

	pollLoop := poller.NewPoller(poller.Config{
		ProcessID:             cfg.Reconciler.ProcessID,
		Chain:                 cfg.Ethereum.ChainID,
		BatchSize:             cfg.Reconciler.BatchSize,
		Confirmations:         cfg.Reconciler.Confirmations,
		PollInterval:          cfg.Reconciler.PollInterval,
		ChunkTimeout:          cfg.Reconciler.ChunkTimeout,
		FailureBackoffInitial: cfg.Reconciler.FailureBackoffInitial,
		FailureBackoffMax:     cfg.Reconciler.FailureBackoffMax,
	}, ethereumClient, blockProvider, eventClassifier, cursorManager, ticketReconciler, publisher, clockAdapter)

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel for component errors
	errCh := make(chan error, 2)

	// Start the status server
	var statusServer *server.Server
	if cfg.Server.Port > 0 {
		statusServer = server.New(server.Config{
			Debug:        cfg.Debug,
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
			MaxLagBlocks: cfg.Server.MaxLagBlocks,
		}, pollLoop, dataStore)

		go func() {
			if err := statusServer.Start(); err != nil {
				errCh <- fmt.Errorf("status server: %w", err)
			}
		}()
	}

	// Start the poll loop
	go func() {
		if err := pollLoop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("poll loop: %w", err)
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.ErrorCtx(ctx, err)
	}
	cancel()

	if statusServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := statusServer.Shutdown(shutdownCtx); err != nil {
			logger.Error(err, zap.String("component", "server"))
		}
	}

	// Give the in-flight chunk time to roll back
	time.Sleep(time.Second)

	// Use non-context logger for final shutdown message since context is already canceled
	logger.Info("Ticket Reconciler stopped")
}
