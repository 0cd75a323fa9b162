package gorm

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clippermedia/clipper/internal/domain/video"
)

func newTestRepository(t *testing.T) *VideoAssetRepository {
	t.Helper()
	db := NewTestDB(t)
	t.Cleanup(func() { CleanupDB(t, db) })

	repo, err := NewVideoAssetRepository(db)
	require.NoError(t, err)
	return repo
}

func newPendingAsset(t *testing.T) *video.Asset {
	t.Helper()
	asset, err := video.NewAsset("my clip", "/media/uploads/clip.mp4", uuid.New(), video.VisibilityPublic)
	require.NoError(t, err)
	return asset
}

func TestSaveAndFindByID(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	asset := newPendingAsset(t)

	require.NoError(t, repo.Save(ctx, asset))

	found, err := repo.FindByID(ctx, asset.ID())
	require.NoError(t, err)
	assert.Equal(t, asset.ID(), found.ID())
	assert.Equal(t, asset.Title(), found.Title())
	assert.Equal(t, asset.UploaderID(), found.UploaderID())
	assert.Equal(t, asset.OriginalPath(), found.OriginalPath())
	assert.Equal(t, video.StatusPending, found.Status())
}

func TestSaveRoundTripsArtifactPaths(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	asset := newPendingAsset(t)

	require.NoError(t, asset.BeginProcessing())
	require.NoError(t, asset.CompleteTranscode("/media/videos/processed/clip_processed.mp4"))
	require.NoError(t, asset.CompleteThumbnail("/media/thumbnails/x_clip_thumb.jpg"))
	require.NoError(t, asset.SetHLSPlaylist("/media/hls/x_clip/playlist.m3u8"))
	require.NoError(t, asset.Complete())
	require.NoError(t, repo.Save(ctx, asset))

	found, err := repo.FindByID(ctx, asset.ID())
	require.NoError(t, err)
	assert.Equal(t, video.StatusCompleted, found.Status())
	assert.Equal(t, "/media/videos/processed/clip_processed.mp4", found.ProcessedPath())
	assert.Equal(t, "/media/thumbnails/x_clip_thumb.jpg", found.ThumbnailPath())
	assert.Equal(t, "/media/hls/x_clip/playlist.m3u8", found.HLSPlaylistPath())
}

func TestFindByIDNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, video.ErrAssetNotFound)
}

func TestClaimForProcessing(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	asset := newPendingAsset(t)
	require.NoError(t, repo.Save(ctx, asset))

	claimed, err := repo.ClaimForProcessing(ctx, asset.ID())
	require.NoError(t, err)
	assert.True(t, claimed)

	found, err := repo.FindByID(ctx, asset.ID())
	require.NoError(t, err)
	assert.Equal(t, video.StatusProcessing, found.Status())

	// A second claim for the same asset loses the compare-and-swap.
	claimed, err = repo.ClaimForProcessing(ctx, asset.ID())
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestClaimForProcessingMissingAsset(t *testing.T) {
	repo := newTestRepository(t)

	claimed, err := repo.ClaimForProcessing(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestClaimForProcessingNonPendingAsset(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	asset := newPendingAsset(t)
	asset.Fail()
	require.NoError(t, repo.Save(ctx, asset))

	claimed, err := repo.ClaimForProcessing(ctx, asset.ID())
	require.NoError(t, err)
	assert.False(t, claimed)

	found, err := repo.FindByID(ctx, asset.ID())
	require.NoError(t, err)
	assert.Equal(t, video.StatusFailed, found.Status())
}
