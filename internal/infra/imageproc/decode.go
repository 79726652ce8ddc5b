// Package imageproc validates, inspects and transforms uploaded image files.
package imageproc

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"universitas/internal/domain/entity"
)

var (
	// ErrUnsupportedImage is returned for data that is not a jpeg, png or
	// webp image.
	ErrUnsupportedImage = errors.New("unsupported image")

	// ErrInvalidFingerprint is returned when a fingerprint cannot be
	// decoded into an image.
	ErrInvalidFingerprint = errors.New("invalid fingerprint")
)

var mimetypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

// Info describes an image without decoding its pixels.
type Info struct {
	Width    int
	Height   int
	Format   string
	Mimetype string
}

// Inspect reads the image header and checks the format.
func Inspect(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	mt, ok := mimetypes[format]
	if !ok {
		return Info{}, fmt.Errorf("%w: format %s", ErrUnsupportedImage, format)
	}
	if cfg.Width < 1 || cfg.Height < 1 {
		return Info{}, fmt.Errorf("%w: empty image", ErrUnsupportedImage)
	}
	return Info{Width: cfg.Width, Height: cfg.Height, Format: format, Mimetype: mt}, nil
}

// Decode validates data and decodes it with EXIF orientation applied.
// Width and height in the returned Info are those of the oriented image.
func Decode(data []byte) (image.Image, Info, error) {
	info, err := Inspect(data)
	if err != nil {
		return nil, Info{}, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, Info{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	b := img.Bounds()
	info.Width, info.Height = b.Dx(), b.Dy()
	return img, info, nil
}

// Stat returns the checksum, size and mimetype of data.
func Stat(data []byte) (entity.FileStat, error) {
	info, err := Inspect(data)
	if err != nil {
		return entity.FileStat{}, err
	}
	sum := md5.Sum(data)
	return entity.FileStat{
		MD5:      hex.EncodeToString(sum[:]),
		Size:     int64(len(data)),
		Mimetype: info.Mimetype,
	}, nil
}
