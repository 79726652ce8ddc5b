package imageproc

import (
	"encoding/base64"
	"fmt"
	"image"
	"math/bits"
	"strconv"
	"strings"

	"github.com/corona10/goimagehash"
)

// Hash kinds stored in ImageFile.ImageHashes.
const (
	AHash = "ahash"
	DHash = "dhash"
	PHash = "phash"
)

// HashKinds lists every kind Hashes computes.
var HashKinds = []string{AHash, DHash, PHash}

// Hashes computes the perceptual hashes of img as 16 digit hex strings.
func Hashes(img image.Image) (map[string]string, error) {
	funcs := map[string]func(image.Image) (*goimagehash.ImageHash, error){
		AHash: goimagehash.AverageHash,
		DHash: goimagehash.DifferenceHash,
		PHash: goimagehash.PerceptionHash,
	}
	out := make(map[string]string, len(funcs))
	for kind, fn := range funcs {
		h, err := fn(img)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		out[kind] = fmt.Sprintf("%016x", h.GetHash())
	}
	return out, nil
}

// Diff is the Hamming distance between two hex hashes.
func Diff(a, b string) (int, error) {
	x, err := strconv.ParseUint(a, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse hash %q: %w", a, err)
	}
	y, err := strconv.ParseUint(b, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse hash %q: %w", b, err)
	}
	return bits.OnesCount64(x ^ y), nil
}

// FromFingerprint decodes an image sent by a client as plain base64 or as
// a data URL.
func FromFingerprint(s string) (image.Image, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidFingerprint)
	}
	if strings.HasPrefix(s, "data:") {
		_, payload, ok := strings.Cut(s, ",")
		if !ok {
			return nil, fmt.Errorf("%w: malformed data url", ErrInvalidFingerprint)
		}
		s = payload
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFingerprint, err)
		}
	}
	img, _, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFingerprint, err)
	}
	return img, nil
}
