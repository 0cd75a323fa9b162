package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/clippermedia/clipper/internal/config"
	"github.com/clippermedia/clipper/internal/domain/pipeline"
	"github.com/clippermedia/clipper/internal/domain/video"
	natsbus "github.com/clippermedia/clipper/internal/infrastructure/events/nats"
	"github.com/clippermedia/clipper/internal/infrastructure/ffmpeg"
	"github.com/clippermedia/clipper/internal/infrastructure/layout"
	gormpersistence "github.com/clippermedia/clipper/internal/infrastructure/persistence/gorm"
	"github.com/clippermedia/clipper/internal/infrastructure/storage"
	"github.com/clippermedia/clipper/internal/logger"
)

func main() {
	cfg, err := config.Load("clipper-worker")
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

	if err := run(cfg, log); err != nil {
		log.Fatal("worker failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, cleanup, err := gormpersistence.NewDB(cfg, log)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer cleanup()

	repo, err := gormpersistence.NewVideoAssetRepository(db)
	if err != nil {
		return fmt.Errorf("initialize repository: %w", err)
	}

	bus, err := natsbus.NewEventBus(cfg.NATS, log)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer bus.Close()

	invoker, err := ffmpeg.NewInvoker(cfg.FFmpeg.Binary, cfg.FFmpeg.Timeout, log)
	if err != nil {
		return fmt.Errorf("initialize ffmpeg invoker: %w", err)
	}

	planner := layout.NewPlanner(cfg.Media.Root)
	orchestrator := pipeline.NewOrchestrator(repo, invoker, planner, bus, log)

	consumer := natsbus.NewIntakeConsumer(bus, orchestrator, log)
	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("start intake consumer: %w", err)
	}

	backend, err := storage.NewBackend(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("initialize storage backend: %w", err)
	}
	if backend != nil {
		mirror := storage.NewMirror(backend, cfg.Media.Root, log)
		if err := bus.Subscribe(ctx, video.SubjectProcessingCompleted, mirror.HandleCompleted); err != nil {
			return fmt.Errorf("start artifact mirror: %w", err)
		}
		log.Info("artifact mirror enabled", zap.String("type", cfg.Storage.Type))
	}

	log.Info("worker started",
		zap.String("media_root", cfg.Media.Root),
		zap.String("nats_url", cfg.NATS.URL))

	<-ctx.Done()
	log.Info("shutting down worker")
	return nil
}
