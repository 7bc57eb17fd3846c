package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/lystun/payflo-sub003/internal/config"
	"github.com/lystun/payflo-sub003/internal/data/mongo"
	"github.com/lystun/payflo-sub003/internal/data/postgres"
	"github.com/lystun/payflo-sub003/internal/logger"
	"github.com/lystun/payflo-sub003/internal/platform/messaging/consumers"
	"github.com/lystun/payflo-sub003/internal/platform/messaging/producers"
	"github.com/lystun/payflo-sub003/internal/platform/persistence"
	"github.com/lystun/payflo-sub003/internal/provider"
	"github.com/lystun/payflo-sub003/internal/settlement/components"
	"github.com/lystun/payflo-sub003/internal/settlement/consumer"
	"github.com/lystun/payflo-sub003/internal/settlement/revenue_poller"
	"github.com/lystun/payflo-sub003/internal/settlement/service"
	"github.com/lystun/payflo-sub003/internal/walletledger"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("settlement_worker")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Settlement Worker",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	businessRepo := postgres.NewBusinessRepository(log, postgresDB)
	walletRepo := postgres.NewWalletRepository(log, postgresDB)
	chargebackRepo := postgres.NewChargebackRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	fundingRepo := postgres.NewFundingRepository(log, postgresDB)
	transactionRepo := mongo.NewTransactionRepository(log, mongoDB.Database())
	batchRepo := mongo.NewBatchRepository(log, mongoDB.Database())

	// Initialize Kafka consumers for the collection and run topics
	collectionConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka, cfg.Kafka.CollectionTopic)
	runConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka, cfg.Kafka.RunTopic)

	// Initialize Kafka DLQ producer
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// dlqProducer might be nil if DLQTopic is not configured. Handlers are nil-safe.

	// Initialize notification producer
	notifier, err := producers.NewNotificationProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize notification producer", "error", err)
		os.Exit(1)
	}

	// Initialize payout provider
	payoutProvider, err := provider.New(&cfg.Provider)
	if err != nil {
		log.Error("Failed to initialize payout provider", "error", err)
		os.Exit(1)
	}

	// Initialize the settlement engine
	ledger := walletledger.NewService(postgresDB, walletRepo, outboxRepo, fundingRepo, transactionRepo, log)
	reportingService, runService := components.CreateServices(
		batchRepo,
		transactionRepo,
		businessRepo,
		chargebackRepo,
		ledger,
		payoutProvider,
		notifier,
		log,
		cfg,
	)

	// Initialize event handlers
	collectionHandler := consumer.NewCollectionEventHandler(log, reportingService, dlqProducer)
	runHandler := consumer.NewRunRequestHandler(log, runService, dlqProducer)

	// Initialize revenue adjustment poller
	platformID, err := uuid.Parse(cfg.Settlement.PlatformBusinessID)
	if err != nil {
		log.Error("Invalid platform business id", "value", cfg.Settlement.PlatformBusinessID, "error", err)
		os.Exit(1)
	}
	applier := revenue_poller.NewAdjustmentApplier(outboxRepo, ledger, platformID, log)
	poller := revenue_poller.NewPoller(&cfg.Outbox, outboxRepo, applier, log)

	// Create error channel for service errors
	errChan := make(chan error, 2)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start Kafka consumers
	log.Info("Starting collection consumer",
		"topic", cfg.Kafka.CollectionTopic,
		"group", cfg.Kafka.ConsumerGroup,
	)
	if err := collectionConsumer.Subscribe(appCtx, cfg.Kafka.CollectionTopic, cfg.Kafka.ConsumerGroup, collectionHandler.HandleMessage); err != nil {
		errChan <- fmt.Errorf("collection consumer error: %w", err)
	}

	log.Info("Starting run consumer",
		"topic", cfg.Kafka.RunTopic,
		"group", cfg.Kafka.ConsumerGroup,
	)
	if err := runConsumer.Subscribe(appCtx, cfg.Kafka.RunTopic, cfg.Kafka.ConsumerGroup, runHandler.HandleMessage); err != nil {
		errChan <- fmt.Errorf("run consumer error: %w", err)
	}

	// Start revenue poller in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting revenue adjustment poller",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		poller.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Shutdown the worker pool if it's a WorkerPoolReportingService
	if wpService, ok := reportingService.(*service.WorkerPoolReportingService); ok {
		log.Info("Shutting down worker pool", "running_workers", wpService.Running())
		wpService.Shutdown()
	}

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Wait for all goroutines to finish
	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Close Kafka producers and consumers
	if dlqProducer != nil { // dlqProducer can be nil if DLQTopic was not configured
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}
	if err = notifier.Close(); err != nil {
		log.Error("Error closing notification producer", "error", err)
	}
	if err = collectionConsumer.Close(); err != nil {
		log.Error("Error closing collection consumer", "error", err)
	}
	if err = runConsumer.Close(); err != nil {
		log.Error("Error closing run consumer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Close MongoDB connection
	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Settlement Worker shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Settlement Worker shutdown completed with errors")
	} else {
		log.Info("Settlement Worker shutdown completed successfully")
	}
}
