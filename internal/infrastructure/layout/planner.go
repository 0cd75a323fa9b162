package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/clippermedia/clipper/internal/domain/pipeline"
)

// ErrUnsafeName is returned when an original filename cannot be safely
// embedded in an output path.
var ErrUnsafeName = errors.New("unsafe original filename")

// Planner derives deterministic, collision-resistant output locations under
// a single media root:
//
//	<root>/videos/processed/<base>_processed.mp4
//	<root>/thumbnails/<assetID>_<base>_thumb.jpg
//	<root>/hls/<assetID>_<base>/{playlist.m3u8, segment_%03d.ts}
//
// Missing directories are created on demand; creation is idempotent and
// safe to race across different assets since paths are asset-scoped.
type Planner struct {
	root string
}

// NewPlanner creates a planner rooted at the media directory.
func NewPlanner(root string) *Planner {
	return &Planner{root: root}
}

var _ pipeline.PathPlanner = (*Planner)(nil)

// ProcessedPath returns the output location for the transcoded MP4.
func (p *Planner) ProcessedPath(originalFilename string) (string, error) {
	stem, err := safeStem(originalFilename)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(p.root, "videos", "processed")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create processed directory: %w", err)
	}

	return filepath.Join(dir, stem+"_processed.mp4"), nil
}

// ThumbnailPath returns the output location for the poster frame.
func (p *Planner) ThumbnailPath(assetID uuid.UUID, originalFilename string) (string, error) {
	stem, err := safeStem(originalFilename)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(p.root, "thumbnails")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create thumbnail directory: %w", err)
	}

	return filepath.Join(dir, fmt.Sprintf("%s_%s_thumb.jpg", assetID, stem)), nil
}

// HLSOutput returns the planned HLS package layout for an asset.
func (p *Planner) HLSOutput(assetID uuid.UUID, originalFilename string) (pipeline.HLSOutput, error) {
	stem, err := safeStem(originalFilename)
	if err != nil {
		return pipeline.HLSOutput{}, err
	}

	dir := filepath.Join(p.root, "hls", fmt.Sprintf("%s_%s", assetID, stem))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return pipeline.HLSOutput{}, fmt.Errorf("create hls directory: %w", err)
	}

	return pipeline.HLSOutput{
		Dir:            dir,
		PlaylistPath:   filepath.Join(dir, "playlist.m3u8"),
		SegmentPattern: filepath.Join(dir, "segment_%03d.ts"),
	}, nil
}

// safeStem strips the extension and rejects names that cannot be embedded
// in a path. Upstream validation should prevent these from ever arriving.
func safeStem(originalFilename string) (string, error) {
	if strings.ContainsAny(originalFilename, `/\`) {
		return "", fmt.Errorf("%w: %q contains a path separator", ErrUnsafeName, originalFilename)
	}

	stem := strings.TrimSuffix(originalFilename, filepath.Ext(originalFilename))
	if stem == "" || stem == "." || stem == ".." {
		return "", fmt.Errorf("%w: %q", ErrUnsafeName, originalFilename)
	}

	return stem, nil
}
