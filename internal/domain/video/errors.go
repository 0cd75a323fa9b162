package video

import "errors"

var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrInvalidStatus = errors.New("invalid asset status")
)
