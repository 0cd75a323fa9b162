package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clippermedia/clipper/internal/domain/video"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Save(ctx context.Context, asset *video.Asset) error {
	args := m.Called(ctx, asset)
	return args.Error(0)
}

func (m *mockRepo) FindByID(ctx context.Context, id uuid.UUID) (*video.Asset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*video.Asset), args.Error(1)
}

func (m *mockRepo) ClaimForProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockInvoker struct {
	mock.Mock
}

func (m *mockInvoker) Transcode(ctx context.Context, inputPath, outputPath string) error {
	args := m.Called(ctx, inputPath, outputPath)
	return args.Error(0)
}

func (m *mockInvoker) ExtractThumbnail(ctx context.Context, inputPath, outputPath string) error {
	args := m.Called(ctx, inputPath, outputPath)
	return args.Error(0)
}

func (m *mockInvoker) PackageHLS(ctx context.Context, inputPath string, out HLSOutput) error {
	args := m.Called(ctx, inputPath, out)
	return args.Error(0)
}

type mockPlanner struct {
	mock.Mock
}

func (m *mockPlanner) ProcessedPath(originalFilename string) (string, error) {
	args := m.Called(originalFilename)
	return args.String(0), args.Error(1)
}

func (m *mockPlanner) ThumbnailPath(assetID uuid.UUID, originalFilename string) (string, error) {
	args := m.Called(assetID, originalFilename)
	return args.String(0), args.Error(1)
}

func (m *mockPlanner) HLSOutput(assetID uuid.UUID, originalFilename string) (HLSOutput, error) {
	args := m.Called(assetID, originalFilename)
	return args.Get(0).(HLSOutput), args.Error(1)
}

type mockBus struct {
	mock.Mock
}

func (m *mockBus) Publish(ctx context.Context, subject string, event interface{}) error {
	args := m.Called(ctx, subject, event)
	return args.Error(0)
}

type fixture struct {
	repo    *mockRepo
	invoker *mockInvoker
	planner *mockPlanner
	bus     *mockBus
	orch    *Orchestrator
	asset   *video.Asset
	hls     HLSOutput
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	asset, err := video.NewAsset("my clip", "/media/uploads/clip.mp4", uuid.New(), video.VisibilityPublic)
	require.NoError(t, err)

	f := &fixture{
		repo:    &mockRepo{},
		invoker: &mockInvoker{},
		planner: &mockPlanner{},
		bus:     &mockBus{},
		asset:   asset,
		hls: HLSOutput{
			Dir:            "/media/hls/x_clip",
			PlaylistPath:   "/media/hls/x_clip/playlist.m3u8",
			SegmentPattern: "/media/hls/x_clip/segment_%03d.ts",
		},
	}
	f.orch = NewOrchestrator(f.repo, f.invoker, f.planner, f.bus, zap.NewNop())
	return f
}

func (f *fixture) expectClaim() {
	f.repo.On("FindByID", mock.Anything, f.asset.ID()).Return(f.asset, nil)
	f.repo.On("ClaimForProcessing", mock.Anything, f.asset.ID()).Return(true, nil)
}

func (f *fixture) expectPlans() {
	f.planner.On("ProcessedPath", "clip.mp4").Return("/media/videos/processed/clip_processed.mp4", nil)
	f.planner.On("ThumbnailPath", f.asset.ID(), "clip.mp4").Return("/media/thumbnails/x_clip_thumb.jpg", nil)
	f.planner.On("HLSOutput", f.asset.ID(), "clip.mp4").Return(f.hls, nil)
}

func TestProcessSuccess(t *testing.T) {
	f := newFixture(t)
	f.expectClaim()
	f.expectPlans()

	f.invoker.On("Transcode", mock.Anything, "/media/uploads/clip.mp4", "/media/videos/processed/clip_processed.mp4").Return(nil)
	f.invoker.On("ExtractThumbnail", mock.Anything, "/media/videos/processed/clip_processed.mp4", "/media/thumbnails/x_clip_thumb.jpg").Return(nil)
	f.invoker.On("PackageHLS", mock.Anything, "/media/videos/processed/clip_processed.mp4", f.hls).Return(nil)

	var savedStatuses []video.Status
	f.repo.On("Save", mock.Anything, f.asset).Run(func(args mock.Arguments) {
		savedStatuses = append(savedStatuses, args.Get(1).(*video.Asset).Status())
	}).Return(nil)

	f.bus.On("Publish", mock.Anything, video.SubjectProcessingCompleted, mock.Anything).Return(nil)

	result := f.orch.Process(context.Background(), f.asset.ID())

	assert.Equal(t, OutcomeCompleted, result.Outcome)
	assert.Contains(t, result.Summary, "processed successfully")
	assert.Equal(t, video.StatusCompleted, f.asset.Status())
	assert.Equal(t, "/media/videos/processed/clip_processed.mp4", f.asset.ProcessedPath())
	assert.Equal(t, "/media/thumbnails/x_clip_thumb.jpg", f.asset.ThumbnailPath())
	assert.Equal(t, f.hls.PlaylistPath, f.asset.HLSPlaylistPath())

	// The asset is persisted after every transition, not only at the end.
	assert.Equal(t, []video.Status{
		video.StatusTranscodeComplete,
		video.StatusThumbnailGenerated,
		video.StatusThumbnailGenerated, // hls playlist recorded
		video.StatusCompleted,
	}, savedStatuses)

	f.bus.AssertNotCalled(t, "Publish", mock.Anything, video.SubjectProcessingFailed, mock.Anything)
}

func TestProcessHLSFailureStillCompletes(t *testing.T) {
	f := newFixture(t)
	f.expectClaim()
	f.expectPlans()

	f.invoker.On("Transcode", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.invoker.On("ExtractThumbnail", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.invoker.On("PackageHLS", mock.Anything, mock.Anything, mock.Anything).
		Return(&ToolchainError{Diagnostics: "segment muxing failed"})

	f.repo.On("Save", mock.Anything, f.asset).Return(nil)
	f.bus.On("Publish", mock.Anything, video.SubjectProcessingCompleted, mock.Anything).Return(nil)

	result := f.orch.Process(context.Background(), f.asset.ID())

	assert.Equal(t, OutcomeCompleted, result.Outcome)
	assert.Equal(t, video.StatusCompleted, f.asset.Status())
	assert.Empty(t, f.asset.HLSPlaylistPath())
	f.bus.AssertNotCalled(t, "Publish", mock.Anything, video.SubjectProcessingFailed, mock.Anything)
}

func TestProcessTranscodeFailureShortCircuits(t *testing.T) {
	f := newFixture(t)
	f.expectClaim()
	f.planner.On("ProcessedPath", "clip.mp4").Return("/media/videos/processed/clip_processed.mp4", nil)

	f.invoker.On("Transcode", mock.Anything, mock.Anything, mock.Anything).
		Return(&ToolchainError{Diagnostics: "disk full"})

	f.repo.On("Save", mock.Anything, f.asset).Return(nil)
	f.bus.On("Publish", mock.Anything, video.SubjectProcessingFailed, mock.Anything).Return(nil)

	result := f.orch.Process(context.Background(), f.asset.ID())

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Contains(t, result.Summary, "transcode")
	assert.Contains(t, result.Summary, "disk full")
	assert.Equal(t, video.StatusFailed, f.asset.Status())

	// Later stages are never attempted after a transcode failure.
	f.invoker.AssertNotCalled(t, "ExtractThumbnail", mock.Anything, mock.Anything, mock.Anything)
	f.invoker.AssertNotCalled(t, "PackageHLS", mock.Anything, mock.Anything, mock.Anything)
	f.bus.AssertNotCalled(t, "Publish", mock.Anything, video.SubjectProcessingCompleted, mock.Anything)
}

func TestProcessTimeoutIsAStageFailure(t *testing.T) {
	f := newFixture(t)
	f.expectClaim()
	f.planner.On("ProcessedPath", "clip.mp4").Return("/media/videos/processed/clip_processed.mp4", nil)

	f.invoker.On("Transcode", mock.Anything, mock.Anything, mock.Anything).
		Return(&ToolchainError{Diagnostics: "operation timed out"})

	f.repo.On("Save", mock.Anything, f.asset).Return(nil)
	f.bus.On("Publish", mock.Anything, video.SubjectProcessingFailed, mock.Anything).Return(nil)

	result := f.orch.Process(context.Background(), f.asset.ID())

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Contains(t, result.Summary, "operation timed out")
	assert.Equal(t, video.StatusFailed, f.asset.Status())
}

func TestProcessNotFound(t *testing.T) {
	f := newFixture(t)
	missing := uuid.New()
	f.repo.On("FindByID", mock.Anything, missing).Return(nil, video.ErrAssetNotFound)

	result := f.orch.Process(context.Background(), missing)

	assert.Equal(t, OutcomeNotFound, result.Outcome)
	assert.Contains(t, result.Summary, "not found")

	// Nothing is claimed, planned, invoked, persisted or published.
	f.repo.AssertNotCalled(t, "ClaimForProcessing", mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.planner.AssertNotCalled(t, "ProcessedPath", mock.Anything)
	f.invoker.AssertNotCalled(t, "Transcode", mock.Anything, mock.Anything, mock.Anything)
	f.bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessDuplicateClaimIsANoOp(t *testing.T) {
	f := newFixture(t)
	f.repo.On("FindByID", mock.Anything, f.asset.ID()).Return(f.asset, nil)
	f.repo.On("ClaimForProcessing", mock.Anything, f.asset.ID()).Return(false, nil)

	result := f.orch.Process(context.Background(), f.asset.ID())

	assert.Equal(t, OutcomeDuplicate, result.Outcome)
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.invoker.AssertNotCalled(t, "Transcode", mock.Anything, mock.Anything, mock.Anything)
	f.bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessThumbnailUnexpectedFailure(t *testing.T) {
	f := newFixture(t)
	f.expectClaim()
	f.planner.On("ProcessedPath", "clip.mp4").Return("/media/videos/processed/clip_processed.mp4", nil)
	f.planner.On("ThumbnailPath", f.asset.ID(), "clip.mp4").Return("/media/thumbnails/x_clip_thumb.jpg", nil)

	f.invoker.On("Transcode", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.invoker.On("ExtractThumbnail", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("read-only file system"))

	f.repo.On("Save", mock.Anything, f.asset).Return(nil)
	f.bus.On("Publish", mock.Anything, video.SubjectProcessingFailed, mock.Anything).Return(nil)

	result := f.orch.Process(context.Background(), f.asset.ID())

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Contains(t, result.Summary, "unexpected error")
	assert.Equal(t, video.StatusFailed, f.asset.Status())

	// The transcode side effect is retained, not rolled back.
	assert.Equal(t, "/media/videos/processed/clip_processed.mp4", f.asset.ProcessedPath())
	assert.Empty(t, f.asset.ThumbnailPath())
	f.invoker.AssertNotCalled(t, "PackageHLS", mock.Anything, mock.Anything, mock.Anything)
}

func TestSecondaryMarkingErrorDoesNotMaskOriginal(t *testing.T) {
	f := newFixture(t)
	f.repo.On("FindByID", mock.Anything, f.asset.ID()).Return(f.asset, nil).Once()
	f.repo.On("ClaimForProcessing", mock.Anything, f.asset.ID()).Return(true, nil)
	f.planner.On("ProcessedPath", "clip.mp4").Return("/media/videos/processed/clip_processed.mp4", nil)
	f.invoker.On("Transcode", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("no space left on device"))

	// Marking the asset failed requires a reload that also fails.
	f.repo.On("FindByID", mock.Anything, f.asset.ID()).Return(nil, errors.New("connection lost"))
	f.bus.On("Publish", mock.Anything, video.SubjectProcessingFailed, mock.Anything).Return(nil)

	result := f.orch.Process(context.Background(), f.asset.ID())

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Contains(t, result.Summary, "unexpected error")
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProcessPublishErrorDoesNotFailJob(t *testing.T) {
	f := newFixture(t)
	f.expectClaim()
	f.expectPlans()

	f.invoker.On("Transcode", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.invoker.On("ExtractThumbnail", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.invoker.On("PackageHLS", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.repo.On("Save", mock.Anything, f.asset).Return(nil)
	f.bus.On("Publish", mock.Anything, video.SubjectProcessingCompleted, mock.Anything).
		Return(errors.New("nats unavailable"))

	result := f.orch.Process(context.Background(), f.asset.ID())

	assert.Equal(t, OutcomeCompleted, result.Outcome)
	assert.Equal(t, video.StatusCompleted, f.asset.Status())
}
