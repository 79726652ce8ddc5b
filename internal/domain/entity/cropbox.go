package entity

import (
	"encoding/json"
	"fmt"
	"image"
	"math"
)

// CropBox describes how an image should be cropped for thumbnails.
// All values are fractions of the full image size, so the same box works
// for every rendition. (X, Y) is the focal point.
type CropBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// NewCropBox returns a crop box with the edges clamped to [0, 1]. The focal
// point is left alone; Validate rejects it when it falls outside the box.
func NewCropBox(left, top, right, bottom, x, y float64) CropBox {
	return CropBox{
		Left:   clamp01(left),
		Top:    clamp01(top),
		Right:  clamp01(right),
		Bottom: clamp01(bottom),
		X:      x,
		Y:      y,
	}
}

// BasicCropBox is the whole image with a centred focal point.
func BasicCropBox() CropBox {
	return CropBox{Left: 0, Top: 0, Right: 1, Bottom: 1, X: 0.5, Y: 0.5}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// Clamped returns a copy with the edges inside [0, 1].
func (c CropBox) Clamped() CropBox {
	return NewCropBox(c.Left, c.Top, c.Right, c.Bottom, c.X, c.Y)
}

// Width of the box as a fraction of image width.
func (c CropBox) Width() float64 { return c.Right - c.Left }

// Height of the box as a fraction of image height.
func (c CropBox) Height() float64 { return c.Bottom - c.Top }

// Center returns the midpoint of the box.
func (c CropBox) Center() (float64, float64) {
	return (c.Left + c.Right) / 2, (c.Top + c.Bottom) / 2
}

// Validate checks the box geometry. Edges must be ordered and the focal
// point has to lie inside the box, edges included.
func (c CropBox) Validate() error {
	for _, v := range []float64{c.Left, c.Top, c.Right, c.Bottom, c.X, c.Y} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return &ValidationError{Field: "crop_box", Message: "values must be between 0 and 1"}
		}
	}
	if c.Left >= c.Right {
		return &ValidationError{Field: "crop_box", Message: "left must be less than right"}
	}
	if c.Top >= c.Bottom {
		return &ValidationError{Field: "crop_box", Message: "top must be less than bottom"}
	}
	if c.X < c.Left || c.X > c.Right || c.Y < c.Top || c.Y > c.Bottom {
		return &ValidationError{
			Field:   "crop_box",
			Message: fmt.Sprintf("focal point (%.3g, %.3g) is outside the crop box", c.X, c.Y),
		}
	}
	return nil
}

// Union returns the smallest box containing c and every other box. The
// focal point of c is kept.
func (c CropBox) Union(others ...CropBox) CropBox {
	out := c
	for _, o := range others {
		out.Left = math.Min(out.Left, o.Left)
		out.Top = math.Min(out.Top, o.Top)
		out.Right = math.Max(out.Right, o.Right)
		out.Bottom = math.Max(out.Bottom, o.Bottom)
	}
	return out
}

// Expand grows the box by factor of its own size on every side, clamped to
// the image.
func (c CropBox) Expand(factor float64) CropBox {
	dw, dh := c.Width()*factor, c.Height()*factor
	return NewCropBox(c.Left-dw, c.Top-dh, c.Right+dw, c.Bottom+dh, clamp01(c.X), clamp01(c.Y))
}

// Pixels converts the box to a pixel rectangle for an image of w×h.
func (c CropBox) Pixels(w, h int) image.Rectangle {
	r := image.Rect(
		int(math.Round(c.Left*float64(w))),
		int(math.Round(c.Top*float64(h))),
		int(math.Round(c.Right*float64(w))),
		int(math.Round(c.Bottom*float64(h))),
	)
	if r.Dx() < 1 {
		r.Max.X = r.Min.X + 1
	}
	if r.Dy() < 1 {
		r.Max.Y = r.Min.Y + 1
	}
	return r.Intersect(image.Rect(0, 0, w, h))
}

// String renders the box the way it is logged.
func (c CropBox) String() string {
	return fmt.Sprintf("[%.2f %.2f %.2f %.2f] (%.2f, %.2f)", c.Left, c.Top, c.Right, c.Bottom, c.X, c.Y)
}

// UnmarshalJSON accepts both a JSON object and a JSON string holding an
// object, since clients send either.
func (c *CropBox) UnmarshalJSON(data []byte) error {
	type plain CropBox
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		data = []byte(s)
	}
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return &ValidationError{Field: "crop_box", Message: err.Error()}
	}
	*c = CropBox(p)
	return nil
}
