package imaging

import "errors"

var (
	// ErrNotFound indicates no source image exists for the identity.
	ErrNotFound = errors.New("image not found")
	// ErrDecodeFailed indicates the file could not be decoded as an image.
	ErrDecodeFailed = errors.New("image decode failed")
)
