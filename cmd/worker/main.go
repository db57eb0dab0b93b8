package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/growthvault-ledger/internal/config"
	"github.com/growthvault-ledger/internal/data/mongo"
	"github.com/growthvault-ledger/internal/data/postgres"
	"github.com/growthvault-ledger/internal/logger"
	"github.com/growthvault-ledger/internal/platform/messaging/consumers"
	"github.com/growthvault-ledger/internal/platform/messaging/producers"
	"github.com/growthvault-ledger/internal/platform/persistence"
	"github.com/growthvault-ledger/internal/service"
	"github.com/growthvault-ledger/internal/worker/archiver"
	workeroutbox "github.com/growthvault-ledger/internal/worker/outbox"
	"github.com/growthvault-ledger/internal/worker/scheduler"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("worker")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting worker",
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
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	growthRepo := postgres.NewGrowthRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	archiveRepo := mongo.NewEventArchiveRepository(log, mongoDB.Database())

	// Initialize Kafka producer for the ledger event stream
	eventProducer, err := producers.NewLedgerEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka consumer and DLQ producer
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// dlqProducer is nil when DLQTopic is not configured. Assign the interface
	// only for a live producer so the handler's nil check stays meaningful.
	var dlqPublisher producers.DeadLetterPublisher
	if dlqProducer != nil {
		dlqPublisher = dlqProducer
	}

	// Initialize the growth sweep
	growthService := service.NewGrowthService(log, postgresDB, &cfg.Growth, accountRepo, growthRepo, outboxRepo)
	sweeper, err := scheduler.NewGrowthSweeper(log, &cfg.Growth, &cfg.WorkerPool, accountRepo, growthService)
	if err != nil {
		log.Error("Failed to initialize growth sweeper", "error", err)
		os.Exit(1)
	}

	// Initialize the outbox poller and the event archiver
	poller := workeroutbox.NewPoller(log, &cfg.Outbox, outboxRepo, eventProducer)
	eventHandler := archiver.NewLedgerEventHandler(log, archiveRepo, dlqPublisher)

	// Create error channel for service errors
	errChan := make(chan error, 1)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start Kafka consumer in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.EventTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.EventTopic, cfg.Kafka.ConsumerGroup, eventHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	// Start the outbox poller and the growth sweep
	log.Info("Starting outbox poller",
		"interval", cfg.Outbox.PollingInterval.String(),
		"batch_size", cfg.Outbox.BatchSize,
	)
	poller.Start(appCtx)

	log.Info("Starting growth sweeper",
		"interval", cfg.Growth.SweepInterval.String(),
		"page_size", cfg.Growth.SweepPageSize,
	)
	sweeper.Start(appCtx)

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

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	sweeper.Stop()
	poller.Stop()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Wait for the consumer goroutine to finish
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

	// Close Kafka clients
	if dlqProducer != nil {
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}
	if err = eventProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}
	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Close MongoDB connection
	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Worker shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Worker shutdown completed with errors")
	} else {
		log.Info("Worker shutdown completed successfully")
	}
}
