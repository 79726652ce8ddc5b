package detector

import (
	"fmt"
	"image"
	"math"

	"github.com/muesli/smartcrop"
	"github.com/muesli/smartcrop/nfnt"
)

const featureLabel = "feature"

// SalientDetector finds the most interesting crops of an image with
// smartcrop, one per aspect ratio.
type SalientDetector struct {
	analyzer smartcrop.Analyzer
	// Ratios are width/height of the crops searched for.
	Ratios []float64
}

// NewSalientDetector returns a detector searching square, portrait and
// landscape crops.
func NewSalientDetector() *SalientDetector {
	return &SalientDetector{
		analyzer: smartcrop.NewAnalyzer(nfnt.NewDefaultResizer()),
		Ratios:   []float64{1, 2.0 / 3, 3.0 / 2},
	}
}

// Detect returns the best crop for each ratio. Squarer crops weigh more.
func (d *SalientDetector) Detect(img image.Image) ([]Feature, error) {
	bounds := img.Bounds()
	features := make([]Feature, 0, len(d.Ratios))
	for i, ratio := range d.Ratios {
		w, h := cropSize(bounds.Dx(), bounds.Dy(), ratio)
		r, err := d.analyzer.FindBestCrop(img, w, h)
		if err != nil {
			return nil, fmt.Errorf("smartcrop: %w", err)
		}
		if r.Empty() {
			continue
		}
		features = append(features, Feature{
			Label:  featureLabel,
			Box:    boxFromRect(r, bounds),
			Weight: 1 / float64(i+1),
		})
	}
	return features, nil
}

// cropSize is the largest w×h of the given ratio inside the image.
func cropSize(width, height int, ratio float64) (int, int) {
	w, h := width, int(math.Round(float64(width)/ratio))
	if h > height {
		h = height
		w = int(math.Round(float64(height) * ratio))
	}
	return max(1, w), max(1, h)
}
