// Package frontpage provides use cases for frontpage teasers and their
// placement in content blocks.
package frontpage

import "errors"

// Sentinel errors for frontpage use case operations.
var (
	// ErrTeaserNotFound indicates that the frontpage story does not exist.
	ErrTeaserNotFound = errors.New("frontpage story not found")

	// ErrBlockNotFound indicates that the content block does not exist.
	ErrBlockNotFound = errors.New("content block not found")

	// ErrInvalidID indicates that an ID is not positive.
	ErrInvalidID = errors.New("invalid ID")
)
