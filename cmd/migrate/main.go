package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/board"
	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/identity"
	"github.com/ShanyuJung/GoalKit-sub000/internal/infrastructure/config"
	"github.com/ShanyuJung/GoalKit-sub000/internal/infrastructure/logger"
	"github.com/ShanyuJung/GoalKit-sub000/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

func main() {
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(config.LogConfig{
		Level:  logLevel,
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	switch command {
	case "up":
		log.Info("Applying schema migrations")
		if err := db.Migrate(); err != nil {
			log.Fatal("Migration failed", zap.Error(err))
		}
		log.Info("Schema is up to date")

	case "status":
		migrator := db.DB.Migrator()
		tables := []struct {
			name  string
			model any
		}{
			{"users", &identity.User{}},
			{"projects", &board.Project{}},
		}
		for _, t := range tables {
			if migrator.HasTable(t.model) {
				log.Info("Table present", zap.String("table", t.name))
			} else {
				log.Warn("Table missing", zap.String("table", t.name))
			}
		}

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`GoalKit Database Migration Tool

Usage:
  migrate [flags] <command>

Commands:
  up        Create or update the schema for all persisted aggregates
  status    Report which tables exist

Flags:
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  GOALKIT_DATABASE_HOST, GOALKIT_DATABASE_PORT, GOALKIT_DATABASE_USER,
  GOALKIT_DATABASE_PASSWORD, GOALKIT_DATABASE_DBNAME, GOALKIT_DATABASE_SSLMODE

Examples:
  # Bring the schema up to date
  migrate up

  # Check table status
  migrate status`)
}
