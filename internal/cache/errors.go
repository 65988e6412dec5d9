package cache

import "errors"

var (
	// ErrEmptyID indicates an empty image identity was provided.
	ErrEmptyID = errors.New("image identity must not be empty")
	// ErrInvalidID indicates the image identity contains a path segment.
	ErrInvalidID = errors.New("image identity contains invalid path segment")
)
