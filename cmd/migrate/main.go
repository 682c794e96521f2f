// Command migrate creates or updates the database schema and exits.
package main

import (
	"fmt"
	"os"

	"sitepay/internal/config"
	"sitepay/internal/observability"
	"sitepay/internal/repositories"

	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	db, err := repositories.Open(cfg.Database)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer func() { _ = repositories.Close(db) }()

	if err := repositories.Migrate(db); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
	logger.Info("schema up to date", zap.String("database", cfg.Database.Name))
}
