package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clippermedia/clipper/internal/domain/video"
)

// VideoAssetRepository is the gorm-backed asset store.
type VideoAssetRepository struct {
	db *gorm.DB
}

// NewVideoAssetRepository creates the repository and migrates its table.
func NewVideoAssetRepository(db *gorm.DB) (*VideoAssetRepository, error) {
	if err := db.AutoMigrate(&VideoAsset{}); err != nil {
		return nil, fmt.Errorf("failed to migrate video_assets table: %w", err)
	}

	return &VideoAssetRepository{db: db}, nil
}

var _ video.Repository = (*VideoAssetRepository)(nil)

// Save persists the asset as a single point write keyed by id.
func (r *VideoAssetRepository) Save(ctx context.Context, asset *video.Asset) error {
	var model VideoAsset
	model.FromDomain(asset)

	result := r.db.WithContext(ctx).Save(&model)
	if result.Error != nil {
		return fmt.Errorf("failed to save asset: %w", result.Error)
	}

	return nil
}

// FindByID finds an asset by id.
func (r *VideoAssetRepository) FindByID(ctx context.Context, id uuid.UUID) (*video.Asset, error) {
	var model VideoAsset

	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, video.ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to find asset: %w", result.Error)
	}

	return model.ToDomain(), nil
}

// ClaimForProcessing performs the compare-and-swap claim: the update only
// matches when the asset is still pending, so concurrent duplicate jobs for
// the same id cannot both win.
func (r *VideoAssetRepository) ClaimForProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&VideoAsset{}).
		Where("id = ? AND status = ?", id, string(video.StatusPending)).
		Updates(map[string]interface{}{
			"status":     string(video.StatusProcessing),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim asset: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}
