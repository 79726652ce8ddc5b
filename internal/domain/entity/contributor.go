package entity

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Contributor is a person credited in bylines or image attributions.
type Contributor struct {
	ID             int64
	DisplayName    string
	Email          string
	Phone          string
	Active         bool
	ProfileImageID *int64
	Created        time.Time
	Modified       time.Time
}

// Validate checks the contributor fields.
func (c *Contributor) Validate() error {
	return fromRules(validation.ValidateStruct(c,
		validation.Field(&c.DisplayName, validation.Required, validation.Length(1, 200)),
		validation.Field(&c.Email, validation.When(c.Email != "", is.EmailFormat)),
		validation.Field(&c.Phone, validation.Length(0, 20)),
	))
}

// String returns the display name.
func (c *Contributor) String() string { return c.DisplayName }

// Credit is the role a contributor had in making a story.
type Credit string

const (
	CreditWriter       Credit = "by"
	CreditPhotographer Credit = "photo"
	CreditIllustrator  Credit = "illus"
	CreditGraphics     Credit = "graph"
	CreditTranslator   Credit = "trans"
	CreditOther        Credit = "other"
)

var creditLabels = map[Credit]string{
	CreditWriter:       "By",
	CreditPhotographer: "Photo",
	CreditIllustrator:  "Illustration",
	CreditGraphics:     "Graphics",
	CreditTranslator:   "Translation",
	CreditOther:        "Other",
}

// Label is the display form of the credit.
func (c Credit) Label() string {
	if l, ok := creditLabels[c]; ok {
		return l
	}
	return string(c)
}

// Byline links a contributor to a story.
type Byline struct {
	ID              int64
	StoryID         int64
	ContributorID   int64
	ContributorName string
	Credit          Credit
	Title           string
}

// Validate checks the byline fields.
func (b *Byline) Validate() error {
	if _, ok := creditLabels[b.Credit]; !ok {
		return &ValidationError{Field: "credit", Message: fmt.Sprintf("unknown credit %q", b.Credit)}
	}
	return fromRules(validation.ValidateStruct(b,
		validation.Field(&b.ContributorID, validation.Required),
		validation.Field(&b.Title, validation.Length(0, 200)),
	))
}
