// Package detector finds the interesting regions of an image, which
// decide where it is cropped.
package detector

import (
	"image"
	"sort"

	"universitas/internal/domain/entity"
)

// Feature is a detected region. Box is in fractions of the image size.
type Feature struct {
	Label  string
	Box    entity.CropBox
	Weight float64
}

// Center returns the centre of the feature box.
func (f Feature) Center() (float64, float64) {
	return f.Box.Center()
}

// Detector returns the features of img.
type Detector interface {
	Detect(img image.Image) ([]Feature, error)
}

// Hybrid looks for faces first and falls back to salient regions when
// there are none.
type Hybrid struct {
	Faces   Detector // nil disables face detection
	Salient Detector
	// N is the maximum number of features returned.
	N int
}

// NewHybrid returns a hybrid detector keeping at most n features.
func NewHybrid(faces, salient Detector, n int) *Hybrid {
	return &Hybrid{Faces: faces, Salient: salient, N: n}
}

// Detect returns at most N features sorted by weight, heaviest first.
func (h *Hybrid) Detect(img image.Image) ([]Feature, error) {
	if h.Faces != nil {
		faces, err := h.Faces.Detect(img)
		if err != nil {
			return nil, err
		}
		if len(faces) > 0 {
			return h.top(faces), nil
		}
	}
	if h.Salient == nil {
		return nil, nil
	}
	features, err := h.Salient.Detect(img)
	if err != nil {
		return nil, err
	}
	return h.top(features), nil
}

func (h *Hybrid) top(features []Feature) []Feature {
	sort.SliceStable(features, func(i, j int) bool {
		return features[i].Weight > features[j].Weight
	})
	if h.N > 0 && len(features) > h.N {
		features = features[:h.N]
	}
	return features
}

// boxFromRect converts a pixel rectangle inside bounds to a feature box
// with the focal point in its centre.
func boxFromRect(r, bounds image.Rectangle) entity.CropBox {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	r = r.Sub(bounds.Min)
	left, top := float64(r.Min.X)/w, float64(r.Min.Y)/h
	right, bottom := float64(r.Max.X)/w, float64(r.Max.Y)/h
	box := entity.NewCropBox(left, top, right, bottom, 0, 0)
	box.X, box.Y = box.Center()
	return box
}

// Load returns the face detector for the cascade at cascadePath, or nil
// when the path is empty, together with the salient region detector.
func Load(cascadePath string) (faces, salient Detector, err error) {
	fd, err := LoadFaceDetector(cascadePath)
	if err != nil {
		return nil, nil, err
	}
	if fd != nil {
		faces = fd
	}
	return faces, NewSalientDetector(), nil
}
