package entity

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DefaultFrontpage is the name of the main frontpage.
const DefaultFrontpage = "main"

// FrontpageStory is the teaser of a story as shown on a frontpage.
type FrontpageStory struct {
	ID               int64
	StoryID          int64
	Kicker           string
	Headline         string
	Lede             string
	ImageID          *int64
	HorizontalCentre int
	VerticalCentre   int
	Blocks           []Contentblock
	Created          time.Time
	Modified         time.Time
}

// Validate checks the teaser fields.
func (f *FrontpageStory) Validate() error {
	return fromRules(validation.ValidateStruct(f,
		validation.Field(&f.StoryID, validation.Required),
		validation.Field(&f.Headline, validation.Required, validation.Length(1, 200)),
		validation.Field(&f.Kicker, validation.Length(0, 200)),
		validation.Field(&f.Lede, validation.Length(0, 1000)),
		validation.Field(&f.HorizontalCentre, validation.Min(0), validation.Max(100)),
		validation.Field(&f.VerticalCentre, validation.Min(0), validation.Max(100)),
	))
}

// Contentblock places a frontpage story on a frontpage.
type Contentblock struct {
	ID               int64
	FrontpageStoryID int64
	Frontpage        string
	PublicationDate  time.Time
	Position         int
	Columns          int
	Height           int
}

// Validate checks the placement fields.
func (c *Contentblock) Validate() error {
	return fromRules(validation.ValidateStruct(c,
		validation.Field(&c.FrontpageStoryID, validation.Required),
		validation.Field(&c.Frontpage, validation.Required, validation.Length(1, 50)),
		validation.Field(&c.Columns, validation.Min(1), validation.Max(12)),
		validation.Field(&c.Height, validation.Min(1), validation.Max(4)),
	))
}

// FrontpageItem is a placed teaser, the read model of a frontpage.
type FrontpageItem struct {
	Block Contentblock
	Story FrontpageStory
}

// AutocreateFrontpageStory builds the default teaser and placement for a
// new story. Higher priority stories get wider blocks.
func AutocreateFrontpageStory(s *Story, now time.Time) (*FrontpageStory, *Contentblock) {
	headline := s.Title
	if headline == "" {
		headline = s.WorkingTitle
	}
	fs := &FrontpageStory{
		StoryID:          s.ID,
		Kicker:           truncate(s.Kicker, 200),
		Headline:         truncate(headline, 200),
		Lede:             truncate(s.Lede, 1000),
		HorizontalCentre: 50,
		VerticalCentre:   50,
		Created:          now,
		Modified:         now,
	}
	pri := s.Priority()
	columns, height := 4, 1
	switch {
	case pri >= 9:
		columns, height = 12, 3
	case pri >= 6:
		columns, height = 6, 2
	case pri >= 3:
		columns, height = 6, 1
	}
	pubDate := now
	if s.PublicationDate != nil {
		pubDate = *s.PublicationDate
	}
	block := &Contentblock{
		Frontpage:       DefaultFrontpage,
		PublicationDate: pubDate,
		Position:        pri * 10,
		Columns:         columns,
		Height:          height,
	}
	return fs, block
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
