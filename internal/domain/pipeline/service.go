package pipeline

import (
	"context"

	"github.com/google/uuid"
)

// Invoker runs one external toolchain operation per call. Each call blocks
// until the toolchain process exits. Output files use overwrite semantics,
// so re-running an operation never fails merely because a prior partial
// output exists. On failure the output file state is undefined; callers must
// not assume cleanup.
type Invoker interface {
	// Transcode produces a web-playable H.264/AAC MP4 with fast-start
	// layout at outputPath.
	Transcode(ctx context.Context, inputPath, outputPath string) error

	// ExtractThumbnail extracts a single JPEG frame at a one-second offset.
	ExtractThumbnail(ctx context.Context, inputPath, outputPath string) error

	// PackageHLS produces a VOD playlist with fixed-duration segments.
	PackageHLS(ctx context.Context, inputPath string, out HLSOutput) error
}

// HLSOutput describes the planned HLS package layout.
type HLSOutput struct {
	Dir            string
	PlaylistPath   string
	SegmentPattern string
}

// PathPlanner derives deterministic output locations from asset identity and
// the original filename, creating any missing directories.
type PathPlanner interface {
	ProcessedPath(originalFilename string) (string, error)
	ThumbnailPath(assetID uuid.UUID, originalFilename string) (string, error)
	HLSOutput(assetID uuid.UUID, originalFilename string) (HLSOutput, error)
}

// EventBus publishes integration events for external collaborators.
type EventBus interface {
	Publish(ctx context.Context, subject string, event interface{}) error
}

// Outcome classifies the terminal result of one pipeline run.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeDuplicate Outcome = "duplicate"
)

// Result is the job-level result of one pipeline run. Summary is a
// human-readable description suitable for job logs.
type Result struct {
	Outcome Outcome
	Summary string
}
