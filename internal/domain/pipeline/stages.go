package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/clippermedia/clipper/internal/domain/video"
	"github.com/clippermedia/clipper/internal/metrics"
)

// runTranscode produces the web-playable MP4 from the original upload. A
// failure here is terminal for the job; later stages are not attempted.
func (o *Orchestrator) runTranscode(ctx context.Context, log *zap.Logger, asset *video.Asset) error {
	outputPath, err := o.planner.ProcessedPath(filepath.Base(asset.OriginalPath()))
	if err != nil {
		return fmt.Errorf("plan processed path: %w", err)
	}

	log.Info("transcoding video",
		zap.String("stage", string(StageTranscode)),
		zap.String("input", asset.OriginalPath()),
		zap.String("output", outputPath))

	start := time.Now()
	err = o.invoker.Transcode(ctx, asset.OriginalPath(), outputPath)
	o.observeStage(StageTranscode, start, err)
	if err != nil {
		return classify(StageTranscode, err)
	}

	if err := asset.CompleteTranscode(outputPath); err != nil {
		return err
	}
	if err := o.repo.Save(ctx, asset); err != nil {
		return fmt.Errorf("persist transcode result: %w", err)
	}

	log.Info("transcode complete",
		zap.String("stage", string(StageTranscode)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// runThumbnail extracts the poster frame from the processed file, not the
// original. A video without a usable thumbnail is not a deliverable product,
// so a failure here is terminal too.
func (o *Orchestrator) runThumbnail(ctx context.Context, log *zap.Logger, asset *video.Asset) error {
	outputPath, err := o.planner.ThumbnailPath(asset.ID(), filepath.Base(asset.OriginalPath()))
	if err != nil {
		return fmt.Errorf("plan thumbnail path: %w", err)
	}

	log.Info("extracting thumbnail",
		zap.String("stage", string(StageThumbnail)),
		zap.String("input", asset.ProcessedPath()),
		zap.String("output", outputPath))

	start := time.Now()
	err = o.invoker.ExtractThumbnail(ctx, asset.ProcessedPath(), outputPath)
	o.observeStage(StageThumbnail, start, err)
	if err != nil {
		return classify(StageThumbnail, err)
	}

	if err := asset.CompleteThumbnail(outputPath); err != nil {
		return err
	}
	if err := o.repo.Save(ctx, asset); err != nil {
		return fmt.Errorf("persist thumbnail result: %w", err)
	}

	log.Info("thumbnail complete",
		zap.String("stage", string(StageThumbnail)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// runHLS packages the processed file for streaming. Packaging is best
// effort: any failure is logged at warning level and the job proceeds to
// completion without a streaming variant.
func (o *Orchestrator) runHLS(ctx context.Context, log *zap.Logger, asset *video.Asset) {
	out, err := o.planner.HLSOutput(asset.ID(), filepath.Base(asset.OriginalPath()))
	if err != nil {
		log.Warn("hls packaging skipped",
			zap.String("stage", string(StageHLS)),
			zap.Error(err))
		metrics.StageTotal.WithLabelValues(string(StageHLS), "failure").Inc()
		return
	}

	log.Info("packaging hls",
		zap.String("stage", string(StageHLS)),
		zap.String("input", asset.ProcessedPath()),
		zap.String("playlist", out.PlaylistPath))

	start := time.Now()
	err = o.invoker.PackageHLS(ctx, asset.ProcessedPath(), out)
	o.observeStage(StageHLS, start, err)
	if err != nil {
		log.Warn("hls packaging failed, continuing without streaming variant",
			zap.String("stage", string(StageHLS)),
			zap.Error(err))
		return
	}

	if err := asset.SetHLSPlaylist(out.PlaylistPath); err != nil {
		log.Warn("failed to record hls playlist", zap.Error(err))
		return
	}
	if err := o.repo.Save(ctx, asset); err != nil {
		log.Warn("failed to persist hls playlist path", zap.Error(err))
		return
	}

	log.Info("hls packaging complete",
		zap.String("stage", string(StageHLS)),
		zap.Duration("elapsed", time.Since(start)))
}

func (o *Orchestrator) observeStage(stage Stage, start time.Time, err error) {
	metrics.StageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.StageTotal.WithLabelValues(string(stage), outcome).Inc()
}

// classify converts an invocation error into the job-level taxonomy:
// toolchain failures become stage failures, everything else stays unexpected.
func classify(stage Stage, err error) error {
	var toolErr *ToolchainError
	if errors.As(err, &toolErr) {
		return &StageError{Stage: stage, Diagnostics: toolErr.Diagnostics}
	}
	return err
}
