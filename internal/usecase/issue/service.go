// Package issue manages the print issues of the publication.
package issue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"universitas/internal/domain/entity"
	"universitas/internal/repository"
)

var (
	// ErrIssueNotFound is returned when the requested issue does not exist.
	ErrIssueNotFound = errors.New("issue not found")

	// ErrInvalidIssueID is returned when an issue ID is zero or negative.
	ErrInvalidIssueID = errors.New("invalid issue ID")
)

// Input holds the editable fields of an issue.
type Input struct {
	IssueNumber     string
	PublicationDate time.Time
	Pages           int
	PDF             string
	CoverPage       string
}

func (in Input) apply(p *entity.PrintIssue) {
	p.IssueNumber = strings.TrimSpace(in.IssueNumber)
	p.PublicationDate = in.PublicationDate
	p.Pages = in.Pages
	p.PDF = strings.TrimSpace(in.PDF)
	p.CoverPage = strings.TrimSpace(in.CoverPage)
}

// Service provides print issue use cases.
type Service struct {
	Repo repository.IssueRepository
	Now  func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// List returns the issues of a year, or every issue when year is zero.
func (s *Service) List(ctx context.Context, year int) ([]*entity.PrintIssue, error) {
	issues, err := s.Repo.List(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	return issues, nil
}

// Get returns an issue.
func (s *Service) Get(ctx context.Context, id int64) (*entity.PrintIssue, error) {
	if id <= 0 {
		return nil, ErrInvalidIssueID
	}
	p, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get issue: %w", err)
	}
	if p == nil {
		return nil, ErrIssueNotFound
	}
	return p, nil
}

// Latest returns the newest issue that is out.
func (s *Service) Latest(ctx context.Context) (*entity.PrintIssue, error) {
	p, err := s.Repo.Latest(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("latest issue: %w", err)
	}
	if p == nil {
		return nil, ErrIssueNotFound
	}
	return p, nil
}

// Create adds an issue.
func (s *Service) Create(ctx context.Context, in Input) (*entity.PrintIssue, error) {
	p := &entity.PrintIssue{}
	in.apply(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}
	return p, nil
}

// Update replaces the fields of an issue.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*entity.PrintIssue, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.Repo.Update(ctx, p); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, ErrIssueNotFound
		}
		return nil, fmt.Errorf("update issue: %w", err)
	}
	return p, nil
}

// Delete removes an issue.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidIssueID
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return ErrIssueNotFound
		}
		return fmt.Errorf("delete issue: %w", err)
	}
	return nil
}
