package entity

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gosimple/slug"
)

// ImageCategory sorts images by what they depict.
type ImageCategory int

const (
	CategoryUnknown      ImageCategory = 0
	CategoryPhoto        ImageCategory = 1
	CategoryIllustration ImageCategory = 2
	CategoryDiagram      ImageCategory = 3
	CategoryProfile      ImageCategory = 4
	CategoryExternal     ImageCategory = 5
)

var categoryLabels = map[ImageCategory]string{
	CategoryUnknown:      "unknown",
	CategoryPhoto:        "photo",
	CategoryIllustration: "illustration",
	CategoryDiagram:      "diagram",
	CategoryProfile:      "profile image",
	CategoryExternal:     "third party image",
}

// Label is the human readable category name.
func (c ImageCategory) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Valid reports whether c is a known category.
func (c ImageCategory) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// APICategory is the simplified category string used by the REST API.
func (c ImageCategory) APICategory() string {
	switch c {
	case CategoryProfile:
		return "profile"
	case CategoryDiagram:
		return "diagram"
	case CategoryIllustration:
		return "illustration"
	case CategoryExternal, CategoryPhoto, CategoryUnknown:
		return "photo"
	}
	return ""
}

// ParseAPICategory maps an API category string back to a category.
func ParseAPICategory(s string) (ImageCategory, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unknown":
		return CategoryUnknown, nil
	case "photo":
		return CategoryPhoto, nil
	case "illustration":
		return CategoryIllustration, nil
	case "diagram":
		return CategoryDiagram, nil
	case "profile":
		return CategoryProfile, nil
	case "external":
		return CategoryExternal, nil
	}
	return CategoryUnknown, &ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", s)}
}

// CroppingMethod records how the crop box of an image was decided.
type CroppingMethod int

const (
	CropNone     CroppingMethod = 0
	CropPending  CroppingMethod = 1
	CropFeatures CroppingMethod = 5
	CropFaces    CroppingMethod = 10
	CropPortrait CroppingMethod = 15
	CropManual   CroppingMethod = 100
)

var croppingLabels = map[CroppingMethod]string{
	CropNone:     "center",
	CropPending:  "pending",
	CropFeatures: "corner detection",
	CropFaces:    "multiple faces",
	CropPortrait: "single face",
	CropManual:   "manual crop",
}

// Label is the display name of the cropping method.
func (m CroppingMethod) Label() string {
	if l, ok := croppingLabels[m]; ok {
		return l
	}
	return fmt.Sprintf("method(%d)", int(m))
}

// Valid reports whether m is a known cropping method.
func (m CroppingMethod) Valid() bool {
	_, ok := croppingLabels[m]
	return ok
}

// FileStat holds checksum and size of the stored original.
type FileStat struct {
	MD5      string `json:"md5"`
	Size     int64  `json:"size"`
	Mimetype string `json:"mimetype"`
}

// ImageFile is a photo or illustration in the publication.
type ImageFile struct {
	ID                   int64
	Stem                 string
	Original             string
	SourceFile           string
	FullWidth            int
	FullHeight           int
	OldFilePath          string
	ContributorID        *int64
	ContributorName      string
	Description          string
	CopyrightInformation string
	ExifData             map[string]any
	CropBox              CropBox
	CroppingMethod       CroppingMethod
	Category             ImageCategory
	Stat                 FileStat
	ImageHash            string
	ImageHashes          map[string]string
	Usage                int
	Created              time.Time
	Modified             time.Time
}

// NewImageFile returns an image waiting for autocrop.
func NewImageFile(now time.Time) *ImageFile {
	return &ImageFile{
		CropBox:        BasicCropBox(),
		CroppingMethod: CropPending,
		Category:       CategoryUnknown,
		ExifData:       map[string]any{},
		ImageHashes:    map[string]string{},
		Created:        now,
		Modified:       now,
	}
}

// IsProfileImage reports whether the image is a byline photo.
func (i *ImageFile) IsProfileImage() bool { return i.Category == CategoryProfile }

// IsPhoto reports whether the image is photographic.
func (i *ImageFile) IsPhoto() bool {
	return i.Category != CategoryDiagram && i.Category != CategoryIllustration
}

// UploadFolder is the date based folder of the original file.
func (i *ImageFile) UploadFolder() string {
	created := i.Created
	if created.IsZero() {
		created = time.Now()
	}
	return fmt.Sprintf("%04d/%02d/%02d", created.Year(), int(created.Month()), created.Day())
}

// Suffix returns the file extension including the dot.
func (i *ImageFile) Suffix() string {
	switch i.Stat.Mimetype {
	case "":
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		if _, sub, ok := strings.Cut(i.Stat.Mimetype, "/"); ok {
			return "." + sub
		}
	}
	if i.Original != "" {
		if ext := path.Ext(i.Original); ext != "" {
			return strings.ToLower(ext)
		}
	}
	return ".xxx"
}

// Filename is the normalized file name, e.g. "portrait.00042.jpg".
func (i *ImageFile) Filename() string {
	return fmt.Sprintf("%s.%05d%s", i.Stem, i.ID, i.Suffix())
}

// String implements fmt.Stringer.
func (i *ImageFile) String() string {
	if i.Stem == "" {
		return fmt.Sprintf("ImageFile(%d)", i.ID)
	}
	return i.Filename()
}

// UploadPath is the storage key for an uploaded file. Once the image has an
// id and a stem, the normalized filename is used instead of name.
func (i *ImageFile) UploadPath(name string) string {
	if i.ID != 0 && i.Stem != "" {
		return path.Join(i.UploadFolder(), i.Filename())
	}
	return i.SourcePath(name)
}

// SourcePath is the normalized upload path of name before the image has
// an id. Staged files are matched on its base name.
func (i *ImageFile) SourcePath(name string) string {
	return path.Join(i.UploadFolder(), SlugifyFilename(name))
}

// Artist is the attribution shown with the image.
func (i *ImageFile) Artist() string {
	if i.ContributorName != "" {
		return i.ContributorName
	}
	if i.CopyrightInformation != "" {
		return i.CopyrightInformation
	}
	return "?"
}

// Validate checks field lengths, enums and the crop box.
func (i *ImageFile) Validate() error {
	err := validation.ValidateStruct(i,
		validation.Field(&i.Stem, validation.Length(0, 1024)),
		validation.Field(&i.Original, validation.Length(0, 1024)),
		validation.Field(&i.Description, validation.Length(0, 1000)),
		validation.Field(&i.CopyrightInformation, validation.Length(0, 1000)),
		validation.Field(&i.FullWidth, validation.Min(0)),
		validation.Field(&i.FullHeight, validation.Min(0)),
		validation.Field(&i.Category, validation.By(func(any) error {
			if !i.Category.Valid() {
				return fmt.Errorf("unknown category %d", int(i.Category))
			}
			return nil
		})),
		validation.Field(&i.CroppingMethod, validation.By(func(any) error {
			if !i.CroppingMethod.Valid() {
				return fmt.Errorf("unknown cropping method %d", int(i.CroppingMethod))
			}
			return nil
		})),
	)
	if err != nil {
		return fromRules(err)
	}
	return i.CropBox.Validate()
}

var (
	trailingHash = regexp.MustCompile(`_.{7}$`)
	dashes       = regexp.MustCompile(`-+`)
)

// SlugifyFilename makes a file name url safe and normalized:
// "Foo Bar_abc1234.JPEG" becomes "foo-bar.jpg".
func SlugifyFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	parts := strings.Split(base, ".")
	stem := parts[0]
	var suffix strings.Builder
	for _, s := range parts[1:] {
		if s == "" {
			continue
		}
		suffix.WriteString("." + strings.ReplaceAll(strings.ToLower(s), "jpeg", "jpg"))
	}
	stem = trailingHash.ReplaceAllString(stem, "")
	stem = strings.Trim(dashes.ReplaceAllString(slug.Make(stem), "-"), "-")
	if stem == "" {
		stem = "image"
	}
	return stem + suffix.String()
}

// StemOf returns the slugified stem of a file name, without suffixes.
func StemOf(filename string) string {
	s := SlugifyFilename(filename)
	stem, _, _ := strings.Cut(s, ".")
	return stem
}
