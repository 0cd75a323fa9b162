package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/clippermedia/clipper/internal/domain/video"
)

// Mirror uploads finished pipeline artifacts to a storage backend. It
// consumes completion events, so mirroring never sits on the pipeline's
// critical path; uploads are best effort and failures only log.
type Mirror struct {
	backend   Backend
	mediaRoot string
	logger    *zap.Logger
}

// NewMirror creates a mirror rooted at the media directory. Keys are the
// artifact paths relative to that root, so the bucket mirrors the local
// filesystem layout.
func NewMirror(backend Backend, mediaRoot string, logger *zap.Logger) *Mirror {
	return &Mirror{
		backend:   backend,
		mediaRoot: mediaRoot,
		logger:    logger,
	}
}

// HandleCompleted is the completion-event handler. It always returns nil:
// a lost mirror upload must not push the event back onto the queue.
func (m *Mirror) HandleCompleted(data []byte) error {
	var event video.ProcessingCompleted
	if err := json.Unmarshal(data, &event); err != nil {
		m.logger.Error("dropping malformed completion event", zap.Error(err))
		return nil
	}

	ctx := context.Background()
	log := m.logger.With(zap.String("asset_id", event.AssetID.String()))

	m.uploadFile(ctx, log, event.ProcessedPath)
	m.uploadFile(ctx, log, event.ThumbnailPath)
	if event.HLSPlaylistPath != "" {
		m.uploadDir(ctx, log, filepath.Dir(event.HLSPlaylistPath))
	}

	return nil
}

func (m *Mirror) uploadFile(ctx context.Context, log *zap.Logger, path string) {
	if path == "" {
		return
	}

	key, err := m.key(path)
	if err != nil {
		log.Warn("skipping artifact outside media root", zap.String("path", path))
		return
	}

	file, err := os.Open(path)
	if err != nil {
		log.Warn("failed to open artifact for mirroring",
			zap.String("path", path), zap.Error(err))
		return
	}
	defer file.Close()

	if err := m.backend.Store(ctx, key, file); err != nil {
		log.Warn("failed to mirror artifact",
			zap.String("key", key), zap.Error(err))
		return
	}

	log.Debug("mirrored artifact", zap.String("key", key))
}

func (m *Mirror) uploadDir(ctx context.Context, log *zap.Logger, dir string) {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			m.uploadFile(ctx, log, path)
		}
		return nil
	})
	if err != nil {
		log.Warn("failed to walk hls directory",
			zap.String("dir", dir), zap.Error(err))
	}
}

func (m *Mirror) key(path string) (string, error) {
	rel, err := filepath.Rel(m.mediaRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %q is outside media root %q", path, m.mediaRoot)
	}
	return filepath.ToSlash(rel), nil
}
