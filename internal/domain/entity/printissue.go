package entity

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// PrintIssue is a printed issue of the publication.
type PrintIssue struct {
	ID              int64     `yaml:"-"`
	IssueNumber     string    `yaml:"issue_number"`
	PublicationDate time.Time `yaml:"publication_date"`
	Pages           int       `yaml:"pages"`
	PDF             string    `yaml:"pdf,omitempty"`
	CoverPage       string    `yaml:"cover_page,omitempty"`
}

// Validate checks the issue fields.
func (p *PrintIssue) Validate() error {
	return fromRules(validation.ValidateStruct(p,
		validation.Field(&p.IssueNumber, validation.Required, validation.Length(1, 5)),
		validation.Field(&p.PublicationDate, validation.Required),
		validation.Field(&p.Pages, validation.Required, validation.Min(1)),
	))
}

// String returns the issue number.
func (p *PrintIssue) String() string { return p.IssueNumber }
