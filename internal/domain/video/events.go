package video

import (
	"time"

	"github.com/google/uuid"
)

// Subjects for the processing event stream. The upload flow publishes a
// ProcessRequested on the request subject; the pipeline publishes the
// terminal outcome, which the notification fan-out consumes.
const (
	SubjectProcessRequest      = "video.process.request"
	SubjectProcessingCompleted = "video.processing.completed"
	SubjectProcessingFailed    = "video.processing.failed"
)

// ProcessRequested is the intake message enqueued by the upload flow.
type ProcessRequested struct {
	AssetID uuid.UUID `json:"asset_id"`
}

// ProcessingCompleted is published when an asset reaches the completed
// state. HLSPlaylistPath is empty when no streaming variant was produced.
type ProcessingCompleted struct {
	AssetID         uuid.UUID `json:"asset_id"`
	Title           string    `json:"title"`
	ProcessedPath   string    `json:"processed_path"`
	ThumbnailPath   string    `json:"thumbnail_path"`
	HLSPlaylistPath string    `json:"hls_playlist_path,omitempty"`
	CompletedAt     time.Time `json:"completed_at"`
}

// ProcessingFailed is published when an asset is marked failed.
type ProcessingFailed struct {
	AssetID  uuid.UUID `json:"asset_id"`
	Title    string    `json:"title"`
	Summary  string    `json:"summary"`
	FailedAt time.Time `json:"failed_at"`
}
