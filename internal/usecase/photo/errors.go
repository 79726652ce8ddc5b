// Package photo implements the image file use cases: uploads, editing,
// duplicate detection, automatic cropping and thumbnail generation.
//
// The asynchronous half of the pipeline (Autocrop and PostSave) is run by
// the worker through the photo task queue, and again by the cleanup job for
// images that are still pending.
package photo

import "errors"

var (
	// ErrImageNotFound is returned when the requested image does not exist.
	ErrImageNotFound = errors.New("image not found")

	// ErrInvalidImageID is returned when an image ID is zero or negative.
	ErrInvalidImageID = errors.New("invalid image ID")

	// ErrInvalidImage is returned for uploads that are not a supported
	// image file.
	ErrInvalidImage = errors.New("invalid image file")

	// ErrInvalidFingerprint is returned when a search fingerprint cannot
	// be decoded.
	ErrInvalidFingerprint = errors.New("incorrect fingerprint")

	// ErrNothingToMerge is returned when a merge names no other images.
	ErrNothingToMerge = errors.New("nothing to merge")
)
