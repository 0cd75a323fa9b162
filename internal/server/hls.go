package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/clippermedia/clipper/internal/domain/video"
)

// ViewerFunc resolves the authenticated viewer for a request. Authentication
// itself happens upstream; the gateway forwards the established identity.
type ViewerFunc func(r *http.Request) (uuid.UUID, bool)

// HeaderViewer reads the forwarded viewer id from the X-Viewer-ID header.
func HeaderViewer(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.Header.Get("X-Viewer-ID"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Handler serves HLS artifacts produced by the pipeline. Private assets are
// only readable by their uploader; everything else about access control
// lives upstream.
type Handler struct {
	repo   video.Repository
	viewer ViewerFunc
	logger *zap.Logger
}

// NewHandler creates a new HLS handler.
func NewHandler(repo video.Repository, viewer ViewerFunc, logger *zap.Logger) *Handler {
	if viewer == nil {
		viewer = HeaderViewer
	}
	return &Handler{
		repo:   repo,
		viewer: viewer,
		logger: logger,
	}
}

// Routes registers the HLS routes on the router.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/videos/{id}/hls/playlist.m3u8", h.ServePlaylist).Methods(http.MethodGet)
	r.HandleFunc("/videos/{id}/hls/{segment}", h.ServeSegment).Methods(http.MethodGet)
}

// ServePlaylist serves the asset's HLS playlist. Playlists are not
// cacheable so players always see the current listing.
func (h *Handler) ServePlaylist(w http.ResponseWriter, r *http.Request) {
	asset, ok := h.loadViewable(w, r)
	if !ok {
		return
	}

	if asset.HLSPlaylistPath() == "" {
		http.NotFound(w, r)
		return
	}

	file, info, ok := h.openArtifact(w, r, asset.HLSPlaylistPath())
	if !ok {
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}

// ServeSegment serves one HLS media segment. Segments are immutable once
// written, so they get long-lived cacheability.
func (h *Handler) ServeSegment(w http.ResponseWriter, r *http.Request) {
	asset, ok := h.loadViewable(w, r)
	if !ok {
		return
	}

	if asset.HLSPlaylistPath() == "" {
		http.NotFound(w, r)
		return
	}

	hlsDir := filepath.Dir(asset.HLSPlaylistPath())
	segmentPath := filepath.Clean(filepath.Join(hlsDir, mux.Vars(r)["segment"]))

	// The segment must stay inside the asset's own hls directory.
	if !strings.HasPrefix(segmentPath, hlsDir+string(filepath.Separator)) {
		http.NotFound(w, r)
		return
	}

	file, info, ok := h.openArtifact(w, r, segmentPath)
	if !ok {
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "video/mp2t")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}

// openArtifact opens an artifact for streaming delivery, writing a 404 when
// it is missing or unreadable.
func (h *Handler) openArtifact(w http.ResponseWriter, r *http.Request, path string) (*os.File, os.FileInfo, bool) {
	file, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			h.logger.Error("failed to open artifact",
				zap.String("path", path),
				zap.Error(err))
		}
		http.NotFound(w, r)
		return nil, nil, false
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		http.NotFound(w, r)
		return nil, nil, false
	}

	return file, info, true
}

// loadViewable loads the asset and applies the visibility rule. A private
// asset is indistinguishable from a missing one for anybody but its
// uploader.
func (h *Handler) loadViewable(w http.ResponseWriter, r *http.Request) (*video.Asset, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}

	asset, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		if !errors.Is(err, video.ErrAssetNotFound) {
			h.logger.Error("failed to load asset",
				zap.String("asset_id", id.String()),
				zap.Error(err))
		}
		http.NotFound(w, r)
		return nil, false
	}

	if asset.Visibility() == video.VisibilityPrivate {
		viewerID, authed := h.viewer(r)
		if !authed || viewerID != asset.UploaderID() {
			http.NotFound(w, r)
			return nil, false
		}
	}

	return asset, true
}
