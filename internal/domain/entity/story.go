package entity

import (
	"fmt"
	"html"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gosimple/slug"
)

// PublicationStatus is the workflow state of a story.
type PublicationStatus int

const (
	StatusDraft      PublicationStatus = 0
	StatusJournalist PublicationStatus = 3
	StatusSubeditor  PublicationStatus = 4
	StatusEditor     PublicationStatus = 5
	StatusToDesk     PublicationStatus = 6
	StatusAtDesk     PublicationStatus = 7
	StatusFromDesk   PublicationStatus = 9
	StatusPublished  PublicationStatus = 10
	StatusNoIndex    PublicationStatus = 11
	StatusPrivate    PublicationStatus = 15
	StatusTemplate   PublicationStatus = 100
	StatusError      PublicationStatus = 500
)

var statusLabels = map[PublicationStatus]string{
	StatusDraft:      "Draft",
	StatusJournalist: "To Journalist",
	StatusSubeditor:  "To Sub Editor",
	StatusEditor:     "To Editor",
	StatusToDesk:     "Ready for newsdesk",
	StatusAtDesk:     "Imported to newsdesk",
	StatusFromDesk:   "Exported from newsdesk",
	StatusPublished:  "Published on website",
	StatusNoIndex:    "Published, but hidden from search engines",
	StatusPrivate:    "Will not be published",
	StatusTemplate:   "Used as template for new articles",
	StatusError:      "Technical error",
}

// Label returns the display name of the status.
func (s PublicationStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Valid reports whether s is a known status.
func (s PublicationStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// IsPublic reports whether stories with this status are visible on the web.
func (s PublicationStatus) IsPublic() bool {
	return s == StatusPublished || s == StatusNoIndex
}

const (
	DefaultLanguage = "nb"
	DefaultHotCount = 1000
	maxSlugLength   = 50
)

// Story is an article in the newspaper.
type Story struct {
	ID                int64
	Language          string
	Title             string
	Slug              string
	Kicker            string
	Lede              string
	Comment           string
	ThemeWord         string
	WorkingTitle      string
	BodytextMarkup    string
	StoryType         string
	PublicationDate   *time.Time
	PublicationStatus PublicationStatus
	IssueID           *int64
	Page              *int
	HitCount          int
	HotCount          int
	BylinesHTML       string
	Bylines           []Byline
	HasMainImage      bool
	Created           time.Time
	Modified          time.Time
}

// NewStory returns a draft with the column defaults applied.
func NewStory() *Story {
	return &Story{
		Language:          DefaultLanguage,
		PublicationStatus: StatusDraft,
		HotCount:          DefaultHotCount,
	}
}

// IsPublished reports whether the story is public at now.
func (s *Story) IsPublished(now time.Time) bool {
	return s.PublicationStatus.IsPublic() &&
		s.PublicationDate != nil &&
		!s.PublicationDate.After(now)
}

// Priority is a number between 0 and 12 used as the initial frontpage
// weight of the story.
func (s *Story) Priority() int {
	pri := 0
	if s.Lede != "" {
		pri++
	}
	if s.HasMainImage {
		pri += 2
	}
	if s.Kicker != "" {
		pri++
	}
	if strings.Contains(s.BodytextMarkup, "@tit") {
		pri += 3
	}
	pri += len(s.BodytextMarkup) / 1000
	return min(12, pri)
}

// SearchConfig is the postgres text search configuration for the language.
func (s *Story) SearchConfig() string {
	if s.Language == "en" {
		return "english"
	}
	return "norwegian"
}

// PrepareSave fills derived fields before the story is written.
func (s *Story) PrepareSave() {
	if s.Language == "" {
		s.Language = DefaultLanguage
	}
	if s.WorkingTitle == "" {
		if s.Title != "" {
			s.WorkingTitle = s.Title
		} else {
			s.WorkingTitle = fmt.Sprintf("[%s]", s.StoryType)
		}
	}
	s.Slug = MakeSlug(s.Title, s.Language)
}

// Clean normalizes user input before publication.
func (s *Story) Clean(now time.Time) {
	if s.PublicationStatus == StatusFromDesk || s.PublicationStatus == StatusPublished {
		if s.Title == "" && !strings.Contains(s.BodytextMarkup, "@headline:") {
			s.BodytextMarkup = strings.Replace(s.BodytextMarkup, "@tit:", "@headline:", 1)
		}
	}
	if s.PublicationStatus.IsPublic() && s.PublicationDate == nil {
		t := now
		s.PublicationDate = &t
	}
	s.BylinesHTML = s.BylinesAsHTML()
}

// BylinesText lists the bylines as "name, title, name".
func (s *Story) BylinesText() string {
	authors := make([]string, 0, len(s.Bylines))
	for _, bl := range s.Bylines {
		if bl.Title != "" {
			authors = append(authors, bl.ContributorName+", "+bl.Title)
		} else {
			authors = append(authors, bl.ContributorName)
		}
	}
	return strings.Join(authors, ", ")
}

// BylinesAsHTML renders the bylines as a table for search and admin display.
func (s *Story) BylinesAsHTML() string {
	rows := []string{`<table class="admin-bylines">`}
	for _, bl := range s.Bylines {
		rows = append(rows, fmt.Sprintf("<tr><td>%s</td><td>%s</td><td>%s</td></tr>",
			html.EscapeString(bl.Credit.Label()),
			html.EscapeString(bl.ContributorName),
			html.EscapeString(bl.Title),
		))
	}
	rows = append(rows, "</table>")
	return strings.Join(rows, "\n")
}

// String renders "2024-01-31: Title".
func (s *Story) String() string {
	title := s.Title
	if title == "" {
		if s.WorkingTitle != "" {
			title = "(" + s.WorkingTitle + ")"
		} else {
			title = "[no title]"
		}
	}
	if s.PublicationDate != nil {
		return s.PublicationDate.Format("2006-01-02") + ": " + title
	}
	return title
}

// Validate checks the story fields.
func (s *Story) Validate() error {
	err := validation.ValidateStruct(s,
		validation.Field(&s.Title, validation.Length(0, 1000)),
		validation.Field(&s.Kicker, validation.Length(0, 1000)),
		validation.Field(&s.ThemeWord, validation.Length(0, 100)),
		validation.Field(&s.WorkingTitle, validation.Length(0, 1000)),
		validation.Field(&s.Language, validation.Required, validation.In("nb", "nn", "en")),
		validation.Field(&s.PublicationStatus, validation.By(func(any) error {
			if !s.PublicationStatus.Valid() {
				return fmt.Errorf("unknown publication status %d", int(s.PublicationStatus))
			}
			return nil
		})),
		validation.Field(&s.Page, validation.When(s.Page != nil, validation.Min(0))),
	)
	if err != nil {
		return fromRules(err)
	}
	if s.Title == "" && s.WorkingTitle == "" && s.BodytextMarkup == "" {
		return &ValidationError{Field: "title", Message: "title, working title or body text is required"}
	}
	return nil
}

// MakeSlug turns a title into a lowercase url slug of at most 50 bytes.
func MakeSlug(title, lang string) string {
	if title == "" {
		return "story-slug"
	}
	s := slug.MakeLang(title, lang)
	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-")
	}
	if s == "" {
		return "story-slug"
	}
	return s
}
