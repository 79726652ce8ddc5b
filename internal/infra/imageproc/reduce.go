package imageproc

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

const (
	// SizeLimit is the largest width or height kept for an original.
	SizeLimit = 4000
	// ByteLimit is the largest file size kept without re-encoding.
	ByteLimit = 3_000_000
	// Quality is the jpeg quality of re-encoded originals and thumbnails.
	Quality = 80
)

// Reduced is the result of Reduce.
type Reduced struct {
	Data     []byte
	Mimetype string
	Width    int
	Height   int
	// Resized is true when the image was scaled down.
	Resized bool
}

// NeedsReduce reports whether an original of the given size and byte count
// is too large to keep as is.
func NeedsReduce(width, height int, size int64) bool {
	return width > SizeLimit || height > SizeLimit || size > ByteLimit
}

// Reduce scales img down to fit inside SizeLimit when data is too large
// and re-encodes it, which also strips EXIF. Small jpeg and png files
// without EXIF are returned unchanged so their checksum survives upload.
// Webp originals are written as jpeg since there is no webp encoder.
func Reduce(data []byte, img image.Image, info Info) (Reduced, error) {
	b := img.Bounds()
	out := Reduced{Width: b.Dx(), Height: b.Dy()}
	resize := NeedsReduce(b.Dx(), b.Dy(), int64(len(data)))
	format, mimetype := encodingFor(info.Format)
	if !resize && mimetype == info.Mimetype && !HasExif(data) {
		out.Data = data
		out.Mimetype = mimetype
		return out, nil
	}

	if resize {
		img = imaging.Fit(img, SizeLimit, SizeLimit, imaging.Lanczos)
		b = img.Bounds()
		out.Width, out.Height = b.Dx(), b.Dy()
		out.Resized = out.Width != info.Width || out.Height != info.Height
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(Quality)); err != nil {
		return Reduced{}, fmt.Errorf("encode: %w", err)
	}
	out.Data = buf.Bytes()
	out.Mimetype = mimetype
	return out, nil
}

func encodingFor(format string) (imaging.Format, string) {
	if format == "png" {
		return imaging.PNG, "image/png"
	}
	return imaging.JPEG, "image/jpeg"
}
