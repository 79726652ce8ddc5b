// Package story provides use cases for newspaper stories: editing,
// publication, ranked search, visit counting and hotness decay.
package story

import "errors"

// Sentinel errors for story use case operations.
var (
	// ErrStoryNotFound indicates that the requested story does not exist.
	ErrStoryNotFound = errors.New("story not found")

	// ErrInvalidStoryID indicates that the story ID is not positive.
	ErrInvalidStoryID = errors.New("invalid story ID")

	// ErrEmptyQuery is returned by Search for a blank query.
	ErrEmptyQuery = errors.New("search query is empty")

	// ErrInvalidFactor is returned by DevalueHotness for factors outside (0, 1].
	ErrInvalidFactor = errors.New("hotness factor must be in (0, 1]")
)
