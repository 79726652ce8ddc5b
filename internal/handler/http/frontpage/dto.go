package frontpage

import (
	"errors"
	"net/http"
	"time"

	"universitas/internal/domain/entity"
	frontpageUC "universitas/internal/usecase/frontpage"
)

type BlockDTO struct {
	ID               int64     `json:"id"`
	FrontpageStoryID int64     `json:"frontpage_story_id"`
	Frontpage        string    `json:"frontpage"`
	PublicationDate  time.Time `json:"publication_date"`
	Position         int       `json:"position"`
	Columns          int       `json:"columns"`
	Height           int       `json:"height"`
}

type TeaserDTO struct {
	ID               int64      `json:"id"`
	StoryID          int64      `json:"story_id"`
	Kicker           string     `json:"kicker"`
	Headline         string     `json:"headline"`
	Lede             string     `json:"lede"`
	ImageID          *int64     `json:"image_id"`
	HorizontalCentre int        `json:"horizontal_centre"`
	VerticalCentre   int        `json:"vertical_centre"`
	Blocks           []BlockDTO `json:"blocks,omitempty"`
}

// ItemDTO is one placed teaser of a frontpage.
type ItemDTO struct {
	Block  BlockDTO  `json:"block"`
	Teaser TeaserDTO `json:"teaser"`
}

func toBlockDTO(cb entity.Contentblock) BlockDTO {
	return BlockDTO{
		ID:               cb.ID,
		FrontpageStoryID: cb.FrontpageStoryID,
		Frontpage:        cb.Frontpage,
		PublicationDate:  cb.PublicationDate,
		Position:         cb.Position,
		Columns:          cb.Columns,
		Height:           cb.Height,
	}
}

func toTeaserDTO(fs *entity.FrontpageStory) TeaserDTO {
	dto := TeaserDTO{
		ID:               fs.ID,
		StoryID:          fs.StoryID,
		Kicker:           fs.Kicker,
		Headline:         fs.Headline,
		Lede:             fs.Lede,
		ImageID:          fs.ImageID,
		HorizontalCentre: fs.HorizontalCentre,
		VerticalCentre:   fs.VerticalCentre,
	}
	for _, b := range fs.Blocks {
		dto.Blocks = append(dto.Blocks, toBlockDTO(b))
	}
	return dto
}

type teaserRequest struct {
	StoryID          int64  `json:"story_id"`
	Kicker           string `json:"kicker"`
	Headline         string `json:"headline"`
	Lede             string `json:"lede"`
	ImageID          *int64 `json:"image_id"`
	HorizontalCentre *int   `json:"horizontal_centre"`
	VerticalCentre   *int   `json:"vertical_centre"`
}

func (r teaserRequest) input() frontpageUC.TeaserInput {
	in := frontpageUC.TeaserInput{
		StoryID:          r.StoryID,
		Kicker:           r.Kicker,
		Headline:         r.Headline,
		Lede:             r.Lede,
		ImageID:          r.ImageID,
		HorizontalCentre: 50,
		VerticalCentre:   50,
	}
	if r.HorizontalCentre != nil {
		in.HorizontalCentre = *r.HorizontalCentre
	}
	if r.VerticalCentre != nil {
		in.VerticalCentre = *r.VerticalCentre
	}
	return in
}

type blockRequest struct {
	Frontpage       string     `json:"frontpage"`
	PublicationDate *time.Time `json:"publication_date"`
	Position        int        `json:"position"`
	Columns         int        `json:"columns"`
	Height          int        `json:"height"`
}

func (r blockRequest) input() frontpageUC.BlockInput {
	return frontpageUC.BlockInput{
		Frontpage:       r.Frontpage,
		PublicationDate: r.PublicationDate,
		Position:        r.Position,
		Columns:         r.Columns,
		Height:          r.Height,
	}
}

// statusFor maps use case errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, frontpageUC.ErrInvalidID),
		errors.Is(err, entity.ErrValidationFailed),
		errors.Is(err, entity.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, frontpageUC.ErrTeaserNotFound),
		errors.Is(err, frontpageUC.ErrBlockNotFound),
		errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
