package entity

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptrTime(t time.Time) *time.Time { return &t }

func TestStory_IsPublished(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		status PublicationStatus
		date   *time.Time
		want   bool
	}{
		{"published in the past", StatusPublished, ptrTime(now.Add(-time.Hour)), true},
		{"noindex in the past", StatusNoIndex, ptrTime(now.Add(-time.Hour)), true},
		{"published in the future", StatusPublished, ptrTime(now.Add(time.Hour)), false},
		{"published without date", StatusPublished, nil, false},
		{"draft", StatusDraft, ptrTime(now.Add(-time.Hour)), false},
		{"private", StatusPrivate, ptrTime(now.Add(-time.Hour)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Story{PublicationStatus: tt.status, PublicationDate: tt.date}
			assert.Equal(t, tt.want, s.IsPublished(now))
		})
	}
}

func TestStory_Priority(t *testing.T) {
	s := &Story{}
	assert.Equal(t, 0, s.Priority())

	s.Lede = "lede"
	s.Kicker = "kicker"
	s.HasMainImage = true
	assert.Equal(t, 4, s.Priority())

	s.BodytextMarkup = "@tit: mellomtittel\n" + strings.Repeat("x", 2500)
	assert.Equal(t, 9, s.Priority())

	s.BodytextMarkup = strings.Repeat("x", 20000)
	assert.Equal(t, 12, s.Priority())
}

func TestStory_Clean(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("promotes first subheading to headline", func(t *testing.T) {
		s := &Story{PublicationStatus: StatusFromDesk, BodytextMarkup: "@tit:one\n@tit:two"}
		s.Clean(now)
		assert.Equal(t, "@headline:one\n@tit:two", s.BodytextMarkup)
		assert.Nil(t, s.PublicationDate)
	})

	t.Run("keeps body when title is set", func(t *testing.T) {
		s := &Story{PublicationStatus: StatusFromDesk, Title: "t", BodytextMarkup: "@tit:one"}
		s.Clean(now)
		assert.Equal(t, "@tit:one", s.BodytextMarkup)
	})

	t.Run("keeps existing headline", func(t *testing.T) {
		s := &Story{PublicationStatus: StatusPublished, BodytextMarkup: "@headline:x\n@tit:one"}
		s.Clean(now)
		assert.Equal(t, "@headline:x\n@tit:one", s.BodytextMarkup)
	})

	t.Run("publishing sets date", func(t *testing.T) {
		s := &Story{PublicationStatus: StatusNoIndex}
		s.Clean(now)
		if assert.NotNil(t, s.PublicationDate) {
			assert.Equal(t, now, *s.PublicationDate)
		}
		assert.Contains(t, s.BylinesHTML, `<table class="admin-bylines">`)
	})
}

func TestStory_PrepareSave(t *testing.T) {
	s := &Story{StoryType: "news"}
	s.PrepareSave()
	assert.Equal(t, "[news]", s.WorkingTitle)
	assert.Equal(t, "story-slug", s.Slug)
	assert.Equal(t, DefaultLanguage, s.Language)

	s = &Story{Title: "Hello World", Language: "en"}
	s.PrepareSave()
	assert.Equal(t, "Hello World", s.WorkingTitle)
	assert.Equal(t, "hello-world", s.Slug)
	assert.Equal(t, "english", s.SearchConfig())
}

func TestMakeSlug_MaxLength(t *testing.T) {
	got := MakeSlug(strings.Repeat("word ", 30), "nb")
	assert.LessOrEqual(t, len(got), 50)
	assert.False(t, strings.HasSuffix(got, "-"))
}

func TestStory_Bylines(t *testing.T) {
	s := &Story{Bylines: []Byline{
		{ContributorName: "Kari", Credit: CreditWriter, Title: "journalist"},
		{ContributorName: "Per", Credit: CreditPhotographer},
	}}
	assert.Equal(t, "Kari, journalist, Per", s.BylinesText())

	html := s.BylinesAsHTML()
	assert.Contains(t, html, "<tr><td>By</td><td>Kari</td><td>journalist</td></tr>")
	assert.Contains(t, html, "<tr><td>Photo</td><td>Per</td><td></td></tr>")
}

func TestStory_String(t *testing.T) {
	s := &Story{Title: "Title", PublicationDate: ptrTime(time.Date(2020, 2, 3, 0, 0, 0, 0, time.UTC))}
	assert.Equal(t, "2020-02-03: Title", s.String())

	s = &Story{WorkingTitle: "wip"}
	assert.Equal(t, "(wip)", s.String())
}

func TestStory_Validate(t *testing.T) {
	s := NewStory()
	s.Title = "ok"
	assert.NoError(t, s.Validate())

	s.PublicationStatus = 42
	assert.ErrorIs(t, s.Validate(), ErrValidationFailed)

	s = NewStory()
	assert.ErrorIs(t, s.Validate(), ErrValidationFailed)

	s = NewStory()
	s.Title = "x"
	s.Language = "de"
	err := s.Validate()
	var ve *ValidationError
	if assert.ErrorAs(t, err, &ve) {
		assert.Equal(t, "language", ve.Field)
	}
}
