package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farmgear-backend/internal/config"
	"farmgear-backend/internal/gateway"
	"farmgear-backend/internal/jobs"
	"farmgear-backend/internal/logger"
	"farmgear-backend/internal/repository/postgres"
	"farmgear-backend/internal/scheduler"
	"farmgear-backend/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	envPath := flag.String("env", ".env", "Optional .env file loaded before the configuration")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'expire-stale-pending-orders', 'all-nightly')")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil {
		log.Printf("No .env file found at %s, using environment variables", *envPath)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting FarmGear Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := postgres.Open(ctx, cfg.GetDatabaseConnectionString())
	cancel()
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	store := postgres.NewStore(db)
	defer store.Close()
	logger.Info("Database connection established")

	// Jobs never create payment intents, but the core needs a gateway.
	gw, err := gateway.New(cfg.GatewayConfig())
	if err != nil {
		log.Fatalf("Failed to initialize payment gateway: %v", err)
	}
	bookingSvc := service.NewBookingService(store, gw, nil, time.Now)

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(&jobs.Services{Booking: bookingSvc}, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if err := runJobOnce(jobRunner, *runOnce); err != nil {
			store.Close()
			log.Fatalf("Job %s failed: %v", *runOnce, err)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) error {
	switch jobName {
	case "expire-stale-pending-orders":
		return jobRunner.ExpireStalePendingOrders()
	case "all-nightly":
		return jobRunner.RunAllNightlyJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - expire-stale-pending-orders\n")
		fmt.Printf("  - all-nightly\n")
		os.Exit(1)
	}
	return nil
}
