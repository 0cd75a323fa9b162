package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/clippermedia/clipper/internal/config"
	gormpersistence "github.com/clippermedia/clipper/internal/infrastructure/persistence/gorm"
	"github.com/clippermedia/clipper/internal/logger"
)

func main() {
	cfg, err := config.Load("clipper-migrate")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Server.ServiceName, cfg.Server.Environment,
		cfg.Server.LogLevel, cfg.Server.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, cleanup, err := gormpersistence.NewDB(cfg, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer cleanup()

	if err := gormpersistence.AutoMigrate(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	log.Info("migrations applied")
}
