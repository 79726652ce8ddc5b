package detector

import (
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
)

const faceLabel = "face"

// FaceDetector finds faces with a pigo cascade.
type FaceDetector struct {
	classifier *pigo.Pigo
	// MinQuality drops detections the cascade is unsure about.
	MinQuality float32
}

// NewFaceDetector unpacks a pigo facefinder cascade.
func NewFaceDetector(cascade []byte) (*FaceDetector, error) {
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade: %w", err)
	}
	return &FaceDetector{classifier: classifier, MinQuality: 5}, nil
}

// LoadFaceDetector reads the cascade at path. An empty path disables face
// detection and returns nil.
func LoadFaceDetector(path string) (*FaceDetector, error) {
	if path == "" {
		return nil, nil
	}
	cascade, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cascade: %w", err)
	}
	return NewFaceDetector(cascade)
}

// Detect returns one feature per face, weighted by size and quality.
func (d *FaceDetector) Detect(img image.Image) ([]Feature, error) {
	bounds := img.Bounds()
	cols, rows := bounds.Dx(), bounds.Dy()
	params := pigo.CascadeParams{
		MinSize:     max(20, min(cols, rows)/20),
		MaxSize:     max(cols, rows),
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(img),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}
	dets := d.classifier.RunCascade(params, 0)
	dets = d.classifier.ClusterDetections(dets, 0.2)

	features := make([]Feature, 0, len(dets))
	for _, det := range dets {
		if det.Q < d.MinQuality {
			continue
		}
		half := det.Scale / 2
		r := image.Rect(det.Col-half, det.Row-half, det.Col+half, det.Row+half).Add(bounds.Min)
		features = append(features, Feature{
			Label:  faceLabel,
			Box:    boxFromRect(r.Intersect(bounds), bounds),
			Weight: float64(det.Scale) * float64(det.Q),
		})
	}
	return features, nil
}
