package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clippermedia/clipper/internal/domain/video"
	"github.com/clippermedia/clipper/internal/logger"
	"github.com/clippermedia/clipper/internal/metrics"
)

// Orchestrator sequences the pipeline stages for one asset and owns its
// state machine. A run always leaves the asset in a terminal, inspectable
// state; failures are converted into a persisted status plus a descriptive
// result and never propagate to the job queue layer.
type Orchestrator struct {
	repo    video.Repository
	invoker Invoker
	planner PathPlanner
	bus     EventBus
	logger  *zap.Logger
}

// NewOrchestrator creates a new pipeline orchestrator.
func NewOrchestrator(
	repo video.Repository,
	invoker Invoker,
	planner PathPlanner,
	bus EventBus,
	log *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		repo:    repo,
		invoker: invoker,
		planner: planner,
		bus:     bus,
		logger:  log,
	}
}

// Process runs the full pipeline for one asset: transcode, thumbnail, then
// best-effort HLS packaging. Stages are strictly sequential; each stage's
// input is the previous stage's output. The asset is persisted after every
// transition so a crash mid-pipeline leaves an accurate status.
func (o *Orchestrator) Process(ctx context.Context, assetID uuid.UUID) Result {
	log := logger.WithAsset(o.logger, assetID)

	asset, err := o.repo.FindByID(ctx, assetID)
	if err != nil {
		if errors.Is(err, video.ErrAssetNotFound) {
			log.Error("asset not found, dropping job")
			metrics.JobsTotal.WithLabelValues(string(OutcomeNotFound)).Inc()
			return Result{
				Outcome: OutcomeNotFound,
				Summary: fmt.Sprintf("video %s not found", assetID),
			}
		}
		log.Error("failed to load asset", zap.Error(err))
		metrics.JobsTotal.WithLabelValues(string(OutcomeFailed)).Inc()
		return Result{
			Outcome: OutcomeFailed,
			Summary: fmt.Sprintf("unexpected error processing video %s, see worker logs", assetID),
		}
	}

	// The claim is a conditional pending->processing update, so a duplicate
	// enqueue of the same asset exits here as a no-op.
	claimed, err := o.repo.ClaimForProcessing(ctx, assetID)
	if err != nil {
		return o.unexpected(ctx, log, asset, err)
	}
	if !claimed {
		log.Info("asset not claimable, skipping duplicate job",
			zap.String("status", string(asset.Status())))
		metrics.JobsTotal.WithLabelValues(string(OutcomeDuplicate)).Inc()
		return Result{
			Outcome: OutcomeDuplicate,
			Summary: fmt.Sprintf("video %q (%s) is not pending, skipping", asset.Title(), assetID),
		}
	}
	if err := asset.BeginProcessing(); err != nil {
		return o.unexpected(ctx, log, asset, err)
	}

	log.Info("processing started",
		zap.String("title", asset.Title()),
		zap.String("original_path", asset.OriginalPath()))

	if err := o.runTranscode(ctx, log, asset); err != nil {
		return o.failed(ctx, log, asset, err)
	}
	if err := o.runThumbnail(ctx, log, asset); err != nil {
		return o.failed(ctx, log, asset, err)
	}
	o.runHLS(ctx, log, asset)

	if err := asset.Complete(); err != nil {
		return o.unexpected(ctx, log, asset, err)
	}
	if err := o.repo.Save(ctx, asset); err != nil {
		return o.unexpected(ctx, log, asset, fmt.Errorf("persist completed status: %w", err))
	}

	o.publishCompleted(ctx, log, asset)
	metrics.JobsTotal.WithLabelValues(string(OutcomeCompleted)).Inc()

	log.Info("processing completed",
		zap.String("processed_path", asset.ProcessedPath()),
		zap.String("thumbnail_path", asset.ThumbnailPath()),
		zap.Bool("hls_available", asset.HLSPlaylistPath() != ""))

	return Result{
		Outcome: OutcomeCompleted,
		Summary: fmt.Sprintf("video %q (%s) processed successfully", asset.Title(), assetID),
	}
}

// failed converts a stage or unexpected error into the terminal failed state.
func (o *Orchestrator) failed(ctx context.Context, log *zap.Logger, asset *video.Asset, err error) Result {
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		return o.unexpected(ctx, log, asset, err)
	}

	log.Error("mandatory stage failed",
		zap.String("stage", string(stageErr.Stage)),
		zap.String("diagnostics", stageErr.Diagnostics))

	asset.Fail()
	if saveErr := o.repo.Save(ctx, asset); saveErr != nil {
		// Keep the original failure as the job result.
		log.Error("failed to persist failed status", zap.Error(saveErr))
	}

	summary := fmt.Sprintf("video %q (%s) %s failed: %s",
		asset.Title(), asset.ID(), stageErr.Stage, stageErr.Diagnostics)
	o.publishFailed(ctx, log, asset, summary)
	metrics.JobsTotal.WithLabelValues(string(OutcomeFailed)).Inc()

	return Result{Outcome: OutcomeFailed, Summary: summary}
}

// unexpected handles anything not classified as a stage invocation failure.
// The asset is marked failed if the record is still loadable; a secondary
// marking error is logged but never replaces the original diagnostic.
func (o *Orchestrator) unexpected(ctx context.Context, log *zap.Logger, asset *video.Asset, err error) Result {
	log.Error("unexpected pipeline error", zap.Error(err))

	if fresh, loadErr := o.repo.FindByID(ctx, asset.ID()); loadErr != nil {
		log.Error("failed to reload asset to mark it failed", zap.Error(loadErr))
	} else {
		fresh.Fail()
		if saveErr := o.repo.Save(ctx, fresh); saveErr != nil {
			log.Error("failed to persist failed status", zap.Error(saveErr))
		}
	}

	summary := fmt.Sprintf("unexpected error processing video %q (%s), see worker logs",
		asset.Title(), asset.ID())
	o.publishFailed(ctx, log, asset, summary)
	metrics.JobsTotal.WithLabelValues(string(OutcomeFailed)).Inc()

	return Result{Outcome: OutcomeFailed, Summary: summary}
}

func (o *Orchestrator) publishCompleted(ctx context.Context, log *zap.Logger, asset *video.Asset) {
	event := video.ProcessingCompleted{
		AssetID:         asset.ID(),
		Title:           asset.Title(),
		ProcessedPath:   asset.ProcessedPath(),
		ThumbnailPath:   asset.ThumbnailPath(),
		HLSPlaylistPath: asset.HLSPlaylistPath(),
		CompletedAt:     time.Now(),
	}

	if err := o.bus.Publish(ctx, video.SubjectProcessingCompleted, event); err != nil {
		log.Error("failed to publish completion event", zap.Error(err))
	}
}

func (o *Orchestrator) publishFailed(ctx context.Context, log *zap.Logger, asset *video.Asset, summary string) {
	event := video.ProcessingFailed{
		AssetID:  asset.ID(),
		Title:    asset.Title(),
		Summary:  summary,
		FailedAt: time.Now(),
	}

	if err := o.bus.Publish(ctx, video.SubjectProcessingFailed, event); err != nil {
		log.Error("failed to publish failure event", zap.Error(err))
	}
}
