package service

import (
	"context"
	"strings"

	"wishyoulucky/internal/domain"
	"wishyoulucky/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BannerService interface {
	ListActive(ctx context.Context) ([]*domain.Banner, error)
	ListAll(ctx context.Context) ([]*domain.Banner, error)
	Create(ctx context.Context, banner *domain.Banner) error
	Update(ctx context.Context, banner *domain.Banner) error
	Delete(ctx context.Context, id uuid.UUID) error

	CategoryBanner(ctx context.Context, categoryName string) (*domain.CategoryBanner, error)
	ListCategoryBanners(ctx context.Context) ([]*domain.CategoryBanner, error)
	UpsertCategoryBanner(ctx context.Context, banner *domain.CategoryBanner) error
	DeleteCategoryBanner(ctx context.Context, id uuid.UUID) error
}

type bannerService struct {
	repo   repository.BannerRepository
	logger *zap.Logger
}

func NewBannerService(repo repository.BannerRepository, logger *zap.Logger) BannerService {
	return &bannerService{repo: repo, logger: logger}
}

func (s *bannerService) ListActive(ctx context.Context) ([]*domain.Banner, error) {
	return s.repo.List(ctx, true)
}

func (s *bannerService) ListAll(ctx context.Context) ([]*domain.Banner, error) {
	return s.repo.List(ctx, false)
}

func validateBanner(b *domain.Banner) error {
	b.ImageURL = strings.TrimSpace(b.ImageURL)
	var errs ValidationErrors
	if b.ImageURL == "" {
		errs.add("image_url", "This field is required")
	}
	if b.Position < 0 {
		errs.add("position", "Value must be greater than or equal to 0")
	}
	return errs.orNil()
}

func (s *bannerService) Create(ctx context.Context, banner *domain.Banner) error {
	if err := validateBanner(banner); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, banner); err != nil {
		return err
	}
	s.logger.Info("Banner created", zap.String("banner_id", banner.ID.String()))
	return nil
}

func (s *bannerService) Update(ctx context.Context, banner *domain.Banner) error {
	if err := validateBanner(banner); err != nil {
		return err
	}
	return s.repo.Update(ctx, banner)
}

func (s *bannerService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// CategoryBanner returns the active banner of a category.
func (s *bannerService) CategoryBanner(ctx context.Context, categoryName string) (*domain.CategoryBanner, error) {
	name := strings.TrimSpace(categoryName)
	if name == "" {
		return nil, ValidationErrors{{Field: "category", Message: "This field is required"}}
	}
	return s.repo.FindCategoryBanner(ctx, name)
}

func (s *bannerService) ListCategoryBanners(ctx context.Context) ([]*domain.CategoryBanner, error) {
	return s.repo.ListCategoryBanners(ctx)
}

func (s *bannerService) UpsertCategoryBanner(ctx context.Context, banner *domain.CategoryBanner) error {
	banner.CategoryName = strings.TrimSpace(banner.CategoryName)
	banner.ImageURL = strings.TrimSpace(banner.ImageURL)

	var errs ValidationErrors
	if banner.CategoryName == "" {
		errs.add("category_name", "This field is required")
	}
	if banner.ImageURL == "" {
		errs.add("image_url", "This field is required")
	}
	if err := errs.orNil(); err != nil {
		return err
	}
	return s.repo.UpsertCategoryBanner(ctx, banner)
}

func (s *bannerService) DeleteCategoryBanner(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteCategoryBanner(ctx, id)
}
