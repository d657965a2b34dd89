package service

import (
	"context"
	"strings"

	"wishyoulucky/internal/domain"
	"wishyoulucky/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductExtraService manages the brand, material and size sheet shown on a product page.
type ProductExtraService interface {
	Get(ctx context.Context, slug string) (*domain.ProductExtraInfo, error)
	Upsert(ctx context.Context, info *domain.ProductExtraInfo) error
	Delete(ctx context.Context, slug string) error
}

type productExtraService struct {
	repo   repository.ProductExtraRepository
	logger *zap.Logger
}

func NewProductExtraService(repo repository.ProductExtraRepository, logger *zap.Logger) ProductExtraService {
	return &productExtraService{repo: repo, logger: logger}
}

func (s *productExtraService) Get(ctx context.Context, slug string) (*domain.ProductExtraInfo, error) {
	return s.repo.Get(ctx, strings.TrimSpace(slug))
}

func checkDimension(errs *ValidationErrors, field string, d decimal.NullDecimal) {
	if d.Valid && d.Decimal.IsNegative() {
		errs.add(field, "Value must be greater than or equal to 0")
	}
}

func validateProductExtra(info *domain.ProductExtraInfo) error {
	info.ProductSlug = strings.TrimSpace(info.ProductSlug)
	info.Brand = strings.TrimSpace(info.Brand)
	info.Material = strings.TrimSpace(info.Material)
	if info.Bonus != nil {
		bonus := strings.TrimSpace(*info.Bonus)
		if bonus == "" {
			info.Bonus = nil
		} else {
			info.Bonus = &bonus
		}
	}

	var errs ValidationErrors
	if info.ProductSlug == "" {
		errs.add("product_slug", "This field is required")
	}
	if info.Brand == "" {
		errs.add("brand", "This field is required")
	}
	if info.Material == "" {
		errs.add("material", "This field is required")
	}
	checkDimension(&errs, "height_mm", info.HeightMM)
	checkDimension(&errs, "width_mm", info.WidthMM)
	checkDimension(&errs, "length_mm", info.LengthMM)
	return errs.orNil()
}

// Upsert replaces the sheet of info.ProductSlug. The product must exist.
func (s *productExtraService) Upsert(ctx context.Context, info *domain.ProductExtraInfo) error {
	if err := validateProductExtra(info); err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, info); err != nil {
		return err
	}
	s.logger.Info("Product extra info saved", zap.String("slug", info.ProductSlug))
	return nil
}

func (s *productExtraService) Delete(ctx context.Context, slug string) error {
	return s.repo.Delete(ctx, strings.TrimSpace(slug))
}
