package main

import (
	"errors"
	"flag"
	"log"

	"farmgear-backend/internal/config"
	"farmgear-backend/internal/repository/postgres"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	envPath := flag.String("env", ".env", "Optional .env file loaded before the configuration")
	action := flag.String("action", "up", "Migration action: up, down, or version")
	steps := flag.Int("steps", 0, "Number of migrations to apply (for down); 0 means all")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil {
		log.Printf("Warning: No .env file found at %s, using environment variables", *envPath)
	} else {
		log.Printf("Loaded .env from %s", *envPath)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	m, err := postgres.NewMigrator(cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to create migrate instance: %v", err)
	}
	defer m.Close()

	switch *action {
	case "up":
		err = m.Up()
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			log.Fatalf("Failed to get version: %v", verr)
		}
		log.Printf("Current version: %d, dirty: %v", version, dirty)
		return
	default:
		log.Fatalf("Unknown action %q: use up, down, or version", *action)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Println("No migrations to apply")
		return
	}
	if err != nil {
		log.Fatalf("Migration %s failed: %v", *action, err)
	}
	log.Printf("Migration %s completed", *action)
}
