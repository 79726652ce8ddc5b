package story

import (
	"errors"
	"net/http"
	"time"

	"universitas/internal/domain/entity"
	"universitas/internal/repository"
	storyUC "universitas/internal/usecase/story"
)

type BylineDTO struct {
	ContributorID int64  `json:"contributor_id"`
	Name          string `json:"name,omitempty"`
	Credit        string `json:"credit"`
	Title         string `json:"title,omitempty"`
}

type DTO struct {
	ID                int64       `json:"id"`
	Language          string      `json:"language"`
	Title             string      `json:"title"`
	Slug              string      `json:"slug"`
	Kicker            string      `json:"kicker,omitempty"`
	Lede              string      `json:"lede,omitempty"`
	Comment           string      `json:"comment,omitempty"`
	ThemeWord         string      `json:"theme_word,omitempty"`
	WorkingTitle      string      `json:"working_title"`
	BodytextMarkup    string      `json:"bodytext_markup"`
	StoryType         string      `json:"story_type,omitempty"`
	PublicationDate   *time.Time  `json:"publication_date"`
	PublicationStatus int         `json:"publication_status"`
	StatusLabel       string      `json:"status_label"`
	IssueID           *int64      `json:"issue_id"`
	Page              *int        `json:"page"`
	HitCount          int         `json:"hit_count"`
	HotCount          int         `json:"hot_count"`
	Bylines           []BylineDTO `json:"bylines"`
	BylinesHTML       string      `json:"bylines_html,omitempty"`
	Created           time.Time   `json:"created"`
	Modified          time.Time   `json:"modified"`
}

type SearchResultDTO struct {
	DTO
	Rank float64 `json:"rank"`
}

func toDTO(s *entity.Story) DTO {
	bylines := make([]BylineDTO, 0, len(s.Bylines))
	for _, b := range s.Bylines {
		bylines = append(bylines, BylineDTO{
			ContributorID: b.ContributorID,
			Name:          b.ContributorName,
			Credit:        string(b.Credit),
			Title:         b.Title,
		})
	}
	return DTO{
		ID:                s.ID,
		Language:          s.Language,
		Title:             s.Title,
		Slug:              s.Slug,
		Kicker:            s.Kicker,
		Lede:              s.Lede,
		Comment:           s.Comment,
		ThemeWord:         s.ThemeWord,
		WorkingTitle:      s.WorkingTitle,
		BodytextMarkup:    s.BodytextMarkup,
		StoryType:         s.StoryType,
		PublicationDate:   s.PublicationDate,
		PublicationStatus: int(s.PublicationStatus),
		StatusLabel:       s.PublicationStatus.Label(),
		IssueID:           s.IssueID,
		Page:              s.Page,
		HitCount:          s.HitCount,
		HotCount:          s.HotCount,
		Bylines:           bylines,
		BylinesHTML:       s.BylinesHTML,
		Created:           s.Created,
		Modified:          s.Modified,
	}
}

func toSearchDTOs(hits []repository.RankedStory) []SearchResultDTO {
	out := make([]SearchResultDTO, 0, len(hits))
	for _, h := range hits {
		out = append(out, SearchResultDTO{DTO: toDTO(h.Story), Rank: h.Rank})
	}
	return out
}

// storyRequest is the body of POST /stories and PUT /stories/{id}.
type storyRequest struct {
	Language          string     `json:"language"`
	Title             string     `json:"title"`
	Kicker            string     `json:"kicker"`
	Lede              string     `json:"lede"`
	Comment           string     `json:"comment"`
	ThemeWord         string     `json:"theme_word"`
	WorkingTitle      string     `json:"working_title"`
	BodytextMarkup    string     `json:"bodytext_markup"`
	StoryType         string     `json:"story_type"`
	PublicationDate   *time.Time `json:"publication_date"`
	PublicationStatus int        `json:"publication_status"`
	IssueID           *int64     `json:"issue_id"`
	Page              *int       `json:"page"`
}

func (r storyRequest) input() storyUC.Input {
	return storyUC.Input{
		Language:          r.Language,
		Title:             r.Title,
		Kicker:            r.Kicker,
		Lede:              r.Lede,
		Comment:           r.Comment,
		ThemeWord:         r.ThemeWord,
		WorkingTitle:      r.WorkingTitle,
		BodytextMarkup:    r.BodytextMarkup,
		StoryType:         r.StoryType,
		PublicationDate:   r.PublicationDate,
		PublicationStatus: entity.PublicationStatus(r.PublicationStatus),
		IssueID:           r.IssueID,
		Page:              r.Page,
	}
}

// statusFor maps use case errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storyUC.ErrInvalidStoryID),
		errors.Is(err, storyUC.ErrEmptyQuery),
		errors.Is(err, entity.ErrValidationFailed),
		errors.Is(err, entity.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, storyUC.ErrStoryNotFound), errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
