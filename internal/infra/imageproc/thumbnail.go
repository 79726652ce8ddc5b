package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"path"
	"strings"

	"github.com/disintegration/imaging"

	"universitas/internal/domain/entity"
)

// Size is a named thumbnail rendition.
type Size struct {
	Name    string
	Width   int
	Height  int
	Upscale bool
	// Cropped renditions are cut to the crop box before scaling.
	Cropped bool
}

var (
	Small   = Size{Name: "small", Width: 200, Height: 200, Upscale: true}
	Medium  = Size{Name: "medium", Width: 800, Height: 800}
	Large   = Size{Name: "large", Width: 1500, Height: 1500}
	Preview = Size{Name: "preview", Width: 150, Height: 150, Upscale: true, Cropped: true}

	// Sizes are the renditions built for every image.
	Sizes = []Size{Small, Medium, Large, Preview}
)

// profileExpand is how much the crop box of a byline photo grows on each side.
const profileExpand = 0.2

// Render produces the rendition of img for size. Cropped renditions use
// box, which diagrams ignore and profile images widen and turn grey.
func Render(img image.Image, size Size, box entity.CropBox, category entity.ImageCategory) image.Image {
	if size.Cropped {
		switch category {
		case entity.CategoryDiagram:
			box = entity.BasicCropBox()
		case entity.CategoryProfile:
			box = box.Expand(profileExpand)
		}
		b := img.Bounds()
		rect := box.Pixels(b.Dx(), b.Dy()).Add(b.Min)
		img = imaging.Crop(img, rect)
	}
	out := fit(img, size.Width, size.Height, size.Upscale)
	if size.Cropped && category == entity.CategoryProfile {
		return imaging.Grayscale(out)
	}
	return out
}

// fit scales img to fit inside w×h, keeping the aspect ratio. Smaller
// images are only enlarged when upscale is set.
func fit(img image.Image, w, h int, upscale bool) image.Image {
	b := img.Bounds()
	if b.Dx() <= w && b.Dy() <= h {
		if !upscale {
			return imaging.Clone(img)
		}
		ratio := math.Min(float64(w)/float64(b.Dx()), float64(h)/float64(b.Dy()))
		nw := max(1, int(math.Round(float64(b.Dx())*ratio)))
		nh := max(1, int(math.Round(float64(b.Dy())*ratio)))
		return imaging.Resize(img, nw, nh, imaging.Lanczos)
	}
	return imaging.Fit(img, w, h, imaging.Lanczos)
}

// Encode writes a rendition as png for png originals and jpeg otherwise.
// It returns the file extension with the dot.
func Encode(img image.Image, mimetype string) ([]byte, string, error) {
	format, ext := imaging.JPEG, ".jpg"
	if mimetype == "image/png" {
		format, ext = imaging.PNG, ".png"
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(Quality)); err != nil {
		return nil, "", fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), ext, nil
}

// ThumbnailKey is the storage key of a rendition of original.
func ThumbnailKey(original, name, ext string) string {
	base := strings.TrimSuffix(original, path.Ext(original))
	return path.Join("thumbs", base+"."+name+ext)
}
