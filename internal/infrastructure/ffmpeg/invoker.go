package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/clippermedia/clipper/internal/domain/pipeline"
)

// Invoker runs ffmpeg operations, one external process per call. Every
// operation passes -y so re-runs overwrite prior partial outputs instead of
// failing. Stderr is captured for failure diagnostics; the file at the
// output path is undefined when an invocation fails.
type Invoker struct {
	logger  *zap.Logger
	ffmpeg  string
	timeout time.Duration
}

// NewInvoker creates an ffmpeg-backed invoker. When binary is empty, ffmpeg
// is resolved from PATH. A non-zero timeout bounds each invocation; expiry
// is reported as a toolchain failure.
func NewInvoker(binary string, timeout time.Duration, logger *zap.Logger) (*Invoker, error) {
	if binary == "" {
		path, err := exec.LookPath("ffmpeg")
		if err != nil {
			return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
		}
		binary = path
	}

	return &Invoker{
		logger:  logger,
		ffmpeg:  binary,
		timeout: timeout,
	}, nil
}

// Transcode produces an H.264/AAC MP4 with the moov atom relocated for
// progressive playback.
func (i *Invoker) Transcode(ctx context.Context, inputPath, outputPath string) error {
	args := []string{
		"-hide_banner",
		"-i", inputPath,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-strict", "experimental",
		"-movflags", "+faststart",
		"-y",
		outputPath,
	}
	return i.run(ctx, "transcode", args)
}

// ExtractThumbnail extracts a single JPEG frame at a one-second offset.
func (i *Invoker) ExtractThumbnail(ctx context.Context, inputPath, outputPath string) error {
	args := []string{
		"-hide_banner",
		"-i", inputPath,
		"-ss", "00:00:01.000",
		"-vframes", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"-y",
		outputPath,
	}
	return i.run(ctx, "thumbnail", args)
}

// PackageHLS produces a VOD playlist with 10-second segments. The playlist
// keeps every segment; there is no sliding window.
func (i *Invoker) PackageHLS(ctx context.Context, inputPath string, out pipeline.HLSOutput) error {
	args := []string{
		"-hide_banner",
		"-i", inputPath,
		"-f", "hls",
		"-hls_time", "10",
		"-hls_list_size", "0",
		"-hls_segment_filename", out.SegmentPattern,
		"-y",
		out.PlaylistPath,
	}
	return i.run(ctx, "hls", args)
}

func (i *Invoker) run(ctx context.Context, operation string, args []string) error {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, i.ffmpeg, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			i.logger.Error("ffmpeg invocation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", i.timeout),
				zap.String("stderr", stderr.String()))
			return &pipeline.ToolchainError{Diagnostics: "operation timed out"}
		}

		// Full stderr at error level; only the truncated prefix travels
		// with the job result.
		i.logger.Error("ffmpeg invocation failed",
			zap.String("operation", operation),
			zap.Error(err),
			zap.String("stderr", stderr.String()))
		return &pipeline.ToolchainError{
			Diagnostics: pipeline.TruncateDiagnostics(stderr.String()),
		}
	}

	i.logger.Debug("ffmpeg invocation succeeded",
		zap.String("operation", operation),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("stderr", pipeline.TruncateDiagnostics(stderr.String())))
	return nil
}
