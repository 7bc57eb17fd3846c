package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lystun/payflo-sub003/internal/api"
	"github.com/lystun/payflo-sub003/internal/api/service"
	"github.com/lystun/payflo-sub003/internal/config"
	"github.com/lystun/payflo-sub003/internal/data/mongo"
	"github.com/lystun/payflo-sub003/internal/data/postgres"
	"github.com/lystun/payflo-sub003/internal/fees"
	"github.com/lystun/payflo-sub003/internal/logger"
	"github.com/lystun/payflo-sub003/internal/platform/messaging/producers"
	"github.com/lystun/payflo-sub003/internal/platform/persistence"
	"github.com/lystun/payflo-sub003/internal/provider"
	"github.com/lystun/payflo-sub003/internal/walletledger"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

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

	// Initialize Kafka producers for the collection and run topics
	collectionProducer, err := producers.NewCollectionEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize collection event producer", "error", err)
		os.Exit(1)
	}

	runProducer, err := producers.NewRunRequestProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize run request producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	businessRepo := postgres.NewBusinessRepository(log, postgresDB)
	walletRepo := postgres.NewWalletRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	fundingRepo := postgres.NewFundingRepository(log, postgresDB)
	transactionRepo := mongo.NewTransactionRepository(log, mongoDB.Database())
	batchRepo := mongo.NewBatchRepository(log, mongoDB.Database())

	// Initialize the fee calculator and payout provider
	feeSettings, err := fees.SettingsFromConfig(&cfg.Fees)
	if err != nil {
		log.Error("Invalid fee configuration", "error", err)
		os.Exit(1)
	}
	calculator := fees.NewCalculator(feeSettings)

	payoutProvider, err := provider.New(&cfg.Provider)
	if err != nil {
		log.Error("Failed to initialize payout provider", "error", err)
		os.Exit(1)
	}

	// Initialize services
	ledger := walletledger.NewService(postgresDB, walletRepo, outboxRepo, fundingRepo, transactionRepo, log)
	businessService := service.NewBusinessService(businessRepo, walletRepo, transactionRepo, cfg.Settlement.Currency)
	collectionService := service.NewCollectionService(log, businessRepo, transactionRepo, calculator, collectionProducer)
	settlementService := service.NewSettlementService(log, batchRepo, transactionRepo, runProducer)
	walletService := service.NewWalletService(log, walletRepo, businessRepo, transactionRepo, ledger, payoutProvider, calculator, cfg.Settlement.Currency)

	// Initialize REST server
	server := api.NewServer(log, cfg, businessService, collectionService, settlementService, walletService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = collectionProducer.Close(); err != nil {
		log.Error("Error closing collection event producer", "error", err)
	}
	if err = runProducer.Close(); err != nil {
		log.Error("Error closing run request producer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
