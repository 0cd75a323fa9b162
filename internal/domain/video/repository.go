package video

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the asset store interface.
type Repository interface {
	// Save persists the asset as a single atomic update keyed by id.
	Save(ctx context.Context, asset *Asset) error

	// FindByID finds an asset by id, returning ErrAssetNotFound if absent.
	FindByID(ctx context.Context, id uuid.UUID) (*Asset, error)

	// ClaimForProcessing atomically moves the asset from pending to
	// processing. It reports false when the asset was not in the pending
	// state, which callers treat as a duplicate enqueue and skip.
	ClaimForProcessing(ctx context.Context, id uuid.UUID) (bool, error)
}
