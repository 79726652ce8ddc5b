package imagefile

import (
	"errors"
	"net/http"
	"time"

	"universitas/internal/domain/entity"
	"universitas/internal/infra/imageproc"
	"universitas/internal/repository"
	photoUC "universitas/internal/usecase/photo"
)

type DTO struct {
	ID                   int64          `json:"id"`
	URL                  string         `json:"url"`
	Original             string         `json:"original"`
	Thumb                string         `json:"thumb"`
	Small                string         `json:"small"`
	Large                string         `json:"large"`
	Created              time.Time      `json:"created"`
	CroppingMethod       int            `json:"cropping_method"`
	Method               string         `json:"method"`
	Size                 [2]int         `json:"size"`
	Description          string         `json:"description"`
	CopyrightInformation string         `json:"copyright_information,omitempty"`
	ContributorID        *int64         `json:"contributor,omitempty"`
	Usage                int            `json:"usage"`
	Category             string         `json:"category"`
	ImageHash            string         `json:"_imagehash"`
	CropBox              entity.CropBox `json:"crop_box"`
	IsProfileImage       bool           `json:"is_profile_image"`
}

func toDTO(svc Service, img *entity.ImageFile) DTO {
	return DTO{
		ID:                   img.ID,
		URL:                  svc.URL(img),
		Original:             img.Original,
		Thumb:                svc.ThumbnailURL(img, imageproc.Preview),
		Small:                svc.ThumbnailURL(img, imageproc.Small),
		Large:                svc.ThumbnailURL(img, imageproc.Large),
		Created:              img.Created,
		CroppingMethod:       int(img.CroppingMethod),
		Method:               img.CroppingMethod.Label(),
		Size:                 [2]int{img.FullWidth, img.FullHeight},
		Description:          img.Description,
		CopyrightInformation: img.CopyrightInformation,
		ContributorID:        img.ContributorID,
		Usage:                img.Usage,
		Category:             img.Category.APICategory(),
		ImageHash:            img.ImageHash,
		CropBox:              img.CropBox,
		IsProfileImage:       img.IsProfileImage(),
	}
}

func toDTOs(svc Service, images []*entity.ImageFile) []DTO {
	out := make([]DTO, 0, len(images))
	for _, img := range images {
		out = append(out, toDTO(svc, img))
	}
	return out
}

// updateRequest is the body of PUT /images/{id}. Missing fields are left
// unchanged.
type updateRequest struct {
	Description          *string         `json:"description"`
	CopyrightInformation *string         `json:"copyright_information"`
	Category             *string         `json:"category"`
	ContributorID        *int64          `json:"contributor"`
	CropBox              *entity.CropBox `json:"crop_box"`
}

func (r updateRequest) input() (photoUC.UpdateInput, error) {
	in := photoUC.UpdateInput{
		Description:          r.Description,
		CopyrightInformation: r.CopyrightInformation,
		ContributorID:        r.ContributorID,
		CropBox:              r.CropBox,
	}
	if r.Category != nil {
		c, err := entity.ParseAPICategory(*r.Category)
		if err != nil {
			return in, err
		}
		in.Category = &c
	}
	return in, nil
}

// statusFor maps use case errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, photoUC.ErrInvalidImageID),
		errors.Is(err, photoUC.ErrInvalidImage),
		errors.Is(err, photoUC.ErrInvalidFingerprint),
		errors.Is(err, photoUC.ErrNothingToMerge),
		errors.Is(err, repository.ErrInvalidSimilarField),
		errors.Is(err, entity.ErrValidationFailed),
		errors.Is(err, entity.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, photoUC.ErrImageNotFound), errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
