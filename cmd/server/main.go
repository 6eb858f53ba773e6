package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcapi "farmgear-backend/internal/api/grpc"
	httpapi "farmgear-backend/internal/api/http"
	"farmgear-backend/internal/config"
	"farmgear-backend/internal/gateway"
	"farmgear-backend/internal/jobs"
	"farmgear-backend/internal/logger"
	"farmgear-backend/internal/metrics"
	"farmgear-backend/internal/repository/postgres"
	"farmgear-backend/internal/scheduler"
	"farmgear-backend/internal/security"
	"farmgear-backend/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	envPath := flag.String("env", ".env", "Optional .env file loaded before the configuration")
	withScheduler := flag.Bool("scheduler", true, "Run the cron scheduler in this process")
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
	logger.Info("Starting FarmGear backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http_address", cfg.GetHTTPAddress(), "grpc_port", cfg.Server.GRPCPort)
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Payment gateway", "type", cfg.Gateway.Type)
	if cfg.Gateway.Type == gateway.TypeMock {
		logger.Warn("Mock payment gateway enabled: callbacks are not signature-checked and /mock-pay is public")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Schema
	if cfg.Database.AutoMigrate {
		logger.Info("Applying database migrations...")
		if err := postgres.MigrateUp(cfg.GetDatabaseConnectionString()); err != nil {
			logger.Error("Failed to migrate database", "error", err)
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	// Initialize Database
	db, err := postgres.Open(ctx, cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	store := postgres.NewStore(db)
	defer store.Close()
	logger.Info("Database connection established")

	// Initialize collaborators
	gw, err := gateway.New(cfg.GatewayConfig())
	if err != nil {
		logger.Error("Failed to initialize payment gateway", "error", err)
		log.Fatalf("Failed to initialize payment gateway: %v", err)
	}
	m := metrics.New()
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL())

	// Initialize Services
	bookingSvc := service.NewBookingService(store, gw, m, time.Now)
	equipmentSvc := service.NewEquipmentService(store)

	// Scheduled jobs
	var cronScheduler *scheduler.Scheduler
	if *withScheduler {
		jobRunner := jobs.NewJobRunner(&jobs.Services{Booking: bookingSvc}, cfg)
		cronScheduler, err = scheduler.NewScheduler(jobRunner)
		if err != nil {
			log.Fatalf("Failed to initialize scheduler: %v", err)
		}
		cronScheduler.Start()
	}

	// HTTP
	router := httpapi.NewRouter(httpapi.Deps{
		Booking:        bookingSvc,
		Equipment:      equipmentSvc,
		Gateway:        gw,
		Tokens:         tokenManager,
		Metrics:        m,
		Health:         store,
		RequestTimeout: cfg.RequestTimeout(),
		MockCheckout:   cfg.Gateway.Type == gateway.TypeMock,
	})
	httpServer := &http.Server{
		Addr:              cfg.GetHTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	// gRPC health
	health := grpcapi.NewHealthChecker(store, 15*time.Second)
	go health.Run(ctx)
	var grpcServer interface{ GracefulStop() }
	if cfg.Server.GRPCPort != 0 {
		lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
		if err != nil {
			logger.Error("Failed to listen", "error", err, "address", cfg.GetGRPCAddress())
			log.Fatalf("Failed to listen: %v", err)
		}
		s := grpcapi.NewServer(health)
		grpcServer = s
		go func() {
			logger.Info("gRPC health server listening", "address", cfg.GetGRPCAddress())
			if err := s.Serve(lis); err != nil {
				logger.Error("Failed to serve gRPC", "error", err)
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if cronScheduler != nil {
		cronScheduler.Stop()
	}
	logger.Info("FarmGear backend stopped. Goodbye!")
}
