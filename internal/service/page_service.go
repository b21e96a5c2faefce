package service

import (
	"context"
	"errors"
	"strings"

	"playhub/internal/cache"
	"playhub/internal/models"
	"playhub/internal/repository"
	"playhub/internal/validation"
)

// PageService provides static page management.
type PageService struct {
	pages repository.PageRepository
}

// NewPageService returns a new PageService.
func NewPageService(pages repository.PageRepository) *PageService {
	return &PageService{pages: pages}
}

type PageInput struct {
	Title         *string `json:"title"`
	Slug          *string `json:"slug"`
	HTMLContent   *string `json:"htmlContent"`
	PublishStatus *bool   `json:"publishStatus"`
}

func (s *PageService) Create(ctx context.Context, in PageInput) (*models.Page, error) {
	if in.Title == nil || in.Slug == nil || in.HTMLContent == nil {
		return nil, models.NewValidationError("title, slug and htmlContent are required")
	}
	page := &models.Page{}
	if err := applyPageInput(page, in); err != nil {
		return nil, err
	}
	if err := s.pages.Create(ctx, page); err != nil {
		return nil, mapPageWriteError(err, page.Slug)
	}
	return page, nil
}

// List returns every page for admins, or only published pages otherwise.
func (s *PageService) List(ctx context.Context, publishedOnly bool) ([]models.Page, error) {
	return s.pages.List(ctx, publishedOnly)
}

func (s *PageService) Get(ctx context.Context, id string) (*models.Page, error) {
	return s.pages.GetByID(ctx, id)
}

// GetPublished returns the page only when it is published; drafts are NotFound.
func (s *PageService) GetPublished(ctx context.Context, id string) (*models.Page, error) {
	page, err := s.pages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !page.PublishStatus {
		return nil, models.NewNotFoundError("Page", id)
	}
	return page, nil
}

// GetPublishedBySlug serves the public site: drafts look exactly like missing pages.
func (s *PageService) GetPublishedBySlug(ctx context.Context, slug string) (*models.Page, error) {
	var page models.Page
	_, err := cache.Aside(ctx, cache.PageKey(slug), &page, cache.PageTTL, func() error {
		found, err := s.pages.GetBySlug(ctx, slug)
		if err != nil {
			return err
		}
		page = *found
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !page.PublishStatus {
		return nil, models.NewNotFoundError("Page", slug)
	}
	return &page, nil
}

func (s *PageService) Update(ctx context.Context, id string, in PageInput) (*models.Page, error) {
	page, err := s.pages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldSlug := page.Slug
	if err := applyPageInput(page, in); err != nil {
		return nil, err
	}
	if err := s.pages.Update(ctx, page); err != nil {
		return nil, mapPageWriteError(err, page.Slug)
	}
	cache.Invalidate(ctx, cache.PageKey(oldSlug), cache.PageKey(page.Slug))
	return page, nil
}

func (s *PageService) Delete(ctx context.Context, id string) error {
	page, err := s.pages.GetByID(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.pages.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("Page", id)
	}
	cache.InvalidatePage(ctx, page.Slug)
	return nil
}

func applyPageInput(page *models.Page, in PageInput) error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return models.NewValidationError("title is required")
		}
		if len(title) > validation.MaxTitleLength {
			return models.NewValidationError("title must not exceed 255 characters")
		}
		page.Title = title
	}
	if in.Slug != nil {
		slug := strings.TrimSpace(*in.Slug)
		if err := validation.ValidatePageSlug(slug); err != nil {
			return models.NewValidationError(err.Error())
		}
		page.Slug = slug
	}
	if in.HTMLContent != nil {
		if strings.TrimSpace(*in.HTMLContent) == "" {
			return models.NewValidationError("htmlContent is required")
		}
		page.HTMLContent = *in.HTMLContent
	}
	if in.PublishStatus != nil {
		page.PublishStatus = *in.PublishStatus
	}
	return nil
}

func mapPageWriteError(err error, slug string) error {
	if errors.Is(err, repository.ErrConstraintViolation) {
		return models.NewConflictError("a page with slug " + slug + " already exists")
	}
	return err
}
