package video

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status represents the processing status of a video asset.
type Status string

const (
	StatusPending            Status = "pending"
	StatusProcessing         Status = "processing"
	StatusTranscodeComplete  Status = "transcoding_complete"
	StatusThumbnailGenerated Status = "thumbnail_generated"
	StatusCompleted          Status = "completed"
	StatusFailed             Status = "failed"
)

// IsTerminal reports whether no further transitions are made from the status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Visibility controls who may view an asset's artifacts.
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityPrivate  Visibility = "private"
	VisibilityUnlisted Visibility = "unlisted"
)

// Asset is the video upload record tracked through the processing pipeline.
// The original file location is immutable; artifact paths are set only after
// the producing stage has confirmed success.
type Asset struct {
	id              uuid.UUID
	title           string
	uploaderID      uuid.UUID
	visibility      Visibility
	originalPath    string
	processedPath   string
	thumbnailPath   string
	hlsPlaylistPath string
	status          Status
	createdAt       time.Time
	updatedAt       time.Time
}

// NewAsset creates a new asset in the pending state.
func NewAsset(title, originalPath string, uploaderID uuid.UUID, visibility Visibility) (*Asset, error) {
	if originalPath == "" {
		return nil, fmt.Errorf("original path is required")
	}
	if visibility == "" {
		visibility = VisibilityPublic
	}

	now := time.Now()
	return &Asset{
		id:           uuid.New(),
		title:        title,
		uploaderID:   uploaderID,
		visibility:   visibility,
		originalPath: originalPath,
		status:       StatusPending,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// AssetRecord is the persisted shape of an asset, used to rehydrate an
// aggregate from the repository.
type AssetRecord struct {
	ID              uuid.UUID
	Title           string
	UploaderID      uuid.UUID
	Visibility      Visibility
	OriginalPath    string
	ProcessedPath   string
	ThumbnailPath   string
	HLSPlaylistPath string
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewAssetFromRepository creates an asset from repository data.
func NewAssetFromRepository(rec AssetRecord) *Asset {
	return &Asset{
		id:              rec.ID,
		title:           rec.Title,
		uploaderID:      rec.UploaderID,
		visibility:      rec.Visibility,
		originalPath:    rec.OriginalPath,
		processedPath:   rec.ProcessedPath,
		thumbnailPath:   rec.ThumbnailPath,
		hlsPlaylistPath: rec.HLSPlaylistPath,
		status:          rec.Status,
		createdAt:       rec.CreatedAt,
		updatedAt:       rec.UpdatedAt,
	}
}

// Getters
func (a *Asset) ID() uuid.UUID           { return a.id }
func (a *Asset) Title() string           { return a.title }
func (a *Asset) UploaderID() uuid.UUID   { return a.uploaderID }
func (a *Asset) Visibility() Visibility  { return a.visibility }
func (a *Asset) OriginalPath() string    { return a.originalPath }
func (a *Asset) ProcessedPath() string   { return a.processedPath }
func (a *Asset) ThumbnailPath() string   { return a.thumbnailPath }
func (a *Asset) HLSPlaylistPath() string { return a.hlsPlaylistPath }
func (a *Asset) Status() Status          { return a.status }
func (a *Asset) CreatedAt() time.Time    { return a.createdAt }
func (a *Asset) UpdatedAt() time.Time    { return a.updatedAt }

// BeginProcessing marks the asset as claimed by a pipeline run.
func (a *Asset) BeginProcessing() error {
	if a.status != StatusPending {
		return fmt.Errorf("%w: cannot begin processing in status %s", ErrInvalidStatus, a.status)
	}
	a.status = StatusProcessing
	a.updatedAt = time.Now()
	return nil
}

// CompleteTranscode records the processed artifact and advances the status.
func (a *Asset) CompleteTranscode(processedPath string) error {
	if a.status != StatusProcessing {
		return fmt.Errorf("%w: cannot complete transcode in status %s", ErrInvalidStatus, a.status)
	}
	if processedPath == "" {
		return fmt.Errorf("processed path is required")
	}
	a.processedPath = processedPath
	a.status = StatusTranscodeComplete
	a.updatedAt = time.Now()
	return nil
}

// CompleteThumbnail records the thumbnail artifact and advances the status.
func (a *Asset) CompleteThumbnail(thumbnailPath string) error {
	if a.status != StatusTranscodeComplete {
		return fmt.Errorf("%w: cannot complete thumbnail in status %s", ErrInvalidStatus, a.status)
	}
	if thumbnailPath == "" {
		return fmt.Errorf("thumbnail path is required")
	}
	a.thumbnailPath = thumbnailPath
	a.status = StatusThumbnailGenerated
	a.updatedAt = time.Now()
	return nil
}

// SetHLSPlaylist records the streaming variant. Packaging is best effort, so
// this does not advance the status; an absent playlist just means no
// streaming variant is available.
func (a *Asset) SetHLSPlaylist(playlistPath string) error {
	if a.status != StatusThumbnailGenerated {
		return fmt.Errorf("%w: cannot set HLS playlist in status %s", ErrInvalidStatus, a.status)
	}
	if playlistPath == "" {
		return fmt.Errorf("playlist path is required")
	}
	a.hlsPlaylistPath = playlistPath
	a.updatedAt = time.Now()
	return nil
}

// Complete marks the asset as fully processed.
func (a *Asset) Complete() error {
	if a.status != StatusThumbnailGenerated {
		return fmt.Errorf("%w: cannot complete in status %s", ErrInvalidStatus, a.status)
	}
	a.status = StatusCompleted
	a.updatedAt = time.Now()
	return nil
}

// Fail marks the asset as failed. Terminal states are never reversed;
// calling Fail on a completed or already failed asset is a no-op. Side
// effects of earlier successful stages are retained, not rolled back.
func (a *Asset) Fail() {
	if a.status.IsTerminal() {
		return
	}
	a.status = StatusFailed
	a.updatedAt = time.Now()
}
