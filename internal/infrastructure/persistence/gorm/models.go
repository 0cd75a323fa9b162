package gorm

import (
	"time"

	"github.com/google/uuid"

	"github.com/clippermedia/clipper/internal/domain/video"
)

// VideoAsset is the database shape of a video asset.
type VideoAsset struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	Title           string    `gorm:"not null"`
	UploaderID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Visibility      string    `gorm:"not null;default:'public'"`
	OriginalPath    string    `gorm:"not null"`
	ProcessedPath   string
	ThumbnailPath   string
	HLSPlaylistPath string
	Status          string `gorm:"not null;default:'pending';index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (VideoAsset) TableName() string {
	return "video_assets"
}

// ToDomain converts the model to a domain asset.
func (m *VideoAsset) ToDomain() *video.Asset {
	return video.NewAssetFromRepository(video.AssetRecord{
		ID:              m.ID,
		Title:           m.Title,
		UploaderID:      m.UploaderID,
		Visibility:      video.Visibility(m.Visibility),
		OriginalPath:    m.OriginalPath,
		ProcessedPath:   m.ProcessedPath,
		ThumbnailPath:   m.ThumbnailPath,
		HLSPlaylistPath: m.HLSPlaylistPath,
		Status:          video.Status(m.Status),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	})
}

// FromDomain fills the model from a domain asset.
func (m *VideoAsset) FromDomain(a *video.Asset) {
	m.ID = a.ID()
	m.Title = a.Title()
	m.UploaderID = a.UploaderID()
	m.Visibility = string(a.Visibility())
	m.OriginalPath = a.OriginalPath()
	m.ProcessedPath = a.ProcessedPath()
	m.ThumbnailPath = a.ThumbnailPath()
	m.HLSPlaylistPath = a.HLSPlaylistPath()
	m.Status = string(a.Status())
	m.CreatedAt = a.CreatedAt()
	m.UpdatedAt = a.UpdatedAt()
}
