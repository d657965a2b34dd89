package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wishyoulucky/internal/domain"
	"wishyoulucky/internal/repository"

	"go.uber.org/zap"
)

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func newPagination(page, pageSize, total int) Pagination {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: pages}
}

type ProductPage struct {
	Data       []*domain.Product `json:"data"`
	Pagination Pagination        `json:"pagination"`
}

// CatalogService covers products, tags, images and categories. Read methods
// take an admin flag; non-admin callers never see cost fields.
type CatalogService interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter, admin bool) (*ProductPage, error)
	GetProduct(ctx context.Context, id int64, admin bool) (*domain.Product, error)
	GetProductBySlug(ctx context.Context, slug string, admin bool) (*domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	SetProductTags(ctx context.Context, productID int64, tags []string) error
	ListTags(ctx context.Context) ([]domain.Tag, error)

	AddProductImage(ctx context.Context, image *domain.ProductImage) error
	DeleteProductImage(ctx context.Context, productID, imageID int64) error
	ReorderProductImages(ctx context.Context, productID int64, imageIDs []int64) ([]domain.ProductImage, error)

	ListCategories(ctx context.Context) ([]*domain.Category, error)
	ListHomepageCategories(ctx context.Context) ([]*domain.Category, error)
	CreateCategory(ctx context.Context, category *domain.Category) error
	UpdateCategory(ctx context.Context, category *domain.Category) error
	DeleteCategory(ctx context.Context, id int64) error
}

type catalogService struct {
	products   repository.ProductRepository
	images     repository.ProductImageRepository
	categories repository.CategoryRepository
	logger     *zap.Logger
}

func NewCatalogService(
	products repository.ProductRepository,
	images repository.ProductImageRepository,
	categories repository.CategoryRepository,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		products:   products,
		images:     images,
		categories: categories,
		logger:     logger,
	}
}

func project(p *domain.Product, admin bool) *domain.Product {
	if admin {
		return p
	}
	return p.Public()
}

func (s *catalogService) ListProducts(ctx context.Context, filter domain.ProductFilter, admin bool) (*ProductPage, error) {
	filter.Normalize()
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, ValidationErrors{{Field: "status", Message: "Unknown product status"}}
	}

	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	data := make([]*domain.Product, 0, len(products))
	for _, p := range products {
		data = append(data, project(p, admin))
	}

	return &ProductPage{
		Data:       data,
		Pagination: newPagination(filter.Page, filter.PageSize, total),
	}, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id int64, admin bool) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withImages(ctx, product, admin)
}

func (s *catalogService) GetProductBySlug(ctx context.Context, slug string, admin bool) (*domain.Product, error) {
	product, err := s.products.FindBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, err
	}
	return s.withImages(ctx, product, admin)
}

func (s *catalogService) withImages(ctx context.Context, product *domain.Product, admin bool) (*domain.Product, error) {
	images, err := s.images.ListByProduct(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product images: %w", err)
	}
	product.Images = images
	return project(product, admin), nil
}

// prepareProduct validates a product and fills defaults in place.
func prepareProduct(p *domain.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	p.SKU = strings.TrimSpace(p.SKU)
	p.Category = strings.TrimSpace(p.Category)

	var errs ValidationErrors
	if p.Name == "" {
		errs.add("name", "This field is required")
	}
	if p.SKU == "" {
		errs.add("sku", "This field is required")
	}
	if p.SellingPrice.IsNegative() {
		errs.add("selling_price", "Value must be greater than or equal to 0")
	}
	if p.Quantity < 0 {
		errs.add("quantity", "Value must be greater than or equal to 0")
	}
	if p.Status == "" {
		p.Status = domain.ProductStatusReady
	} else if !p.Status.Valid() {
		errs.add("product_status", "Unknown product status")
	}
	if err := errs.orNil(); err != nil {
		return err
	}

	p.ProductType = p.TypeOrDefault()
	if strings.TrimSpace(p.Slug) == "" {
		p.Slug = ProductSlug(p.Name, p.SKU)
	} else {
		p.Slug = Slugify(p.Slug)
	}
	return nil
}

func (s *catalogService) CreateProduct(ctx context.Context, product *domain.Product) error {
	if err := prepareProduct(product); err != nil {
		return err
	}
	if err := s.products.Create(ctx, product); err != nil {
		return err
	}
	s.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.String("sku", product.SKU),
	)
	return nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, product *domain.Product) error {
	if err := prepareProduct(product); err != nil {
		return err
	}
	return s.products.Update(ctx, product)
}

func (s *catalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Product deleted", zap.Int64("product_id", id))
	return nil
}

func (s *catalogService) SetProductTags(ctx context.Context, productID int64, tags []string) error {
	return s.products.SetTags(ctx, productID, tags)
}

func (s *catalogService) ListTags(ctx context.Context) ([]domain.Tag, error) {
	return s.products.ListTags(ctx)
}

func (s *catalogService) AddProductImage(ctx context.Context, image *domain.ProductImage) error {
	if strings.TrimSpace(image.ImageURL) == "" {
		return ValidationErrors{{Field: "image_url", Message: "This field is required"}}
	}
	if _, err := s.products.FindByID(ctx, image.ProductID); err != nil {
		return err
	}
	return s.images.Add(ctx, image)
}

func (s *catalogService) DeleteProductImage(ctx context.Context, productID, imageID int64) error {
	return s.images.Delete(ctx, productID, imageID)
}

func (s *catalogService) ReorderProductImages(ctx context.Context, productID int64, imageIDs []int64) ([]domain.ProductImage, error) {
	seen := make(map[int64]struct{}, len(imageIDs))
	for _, id := range imageIDs {
		if _, dup := seen[id]; dup {
			return nil, ValidationErrors{{Field: "image_ids", Message: "Image ids must be unique"}}
		}
		seen[id] = struct{}{}
	}

	if err := s.images.Reorder(ctx, productID, imageIDs); err != nil {
		return nil, err
	}
	return s.images.ListByProduct(ctx, productID)
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *catalogService) ListHomepageCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.ListHomepage(ctx)
}

func validateCategory(c *domain.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return ValidationErrors{{Field: "name", Message: "This field is required"}}
	}
	if c.HomepageOrder < 0 {
		return ValidationErrors{{Field: "homepage_order", Message: "Value must be greater than or equal to 0"}}
	}
	return nil
}

func (s *catalogService) CreateCategory(ctx context.Context, category *domain.Category) error {
	if err := validateCategory(category); err != nil {
		return err
	}
	return s.categories.Create(ctx, category)
}

func (s *catalogService) UpdateCategory(ctx context.Context, category *domain.Category) error {
	if err := validateCategory(category); err != nil {
		return err
	}
	return s.categories.Update(ctx, category)
}

func (s *catalogService) DeleteCategory(ctx context.Context, id int64) error {
	err := s.categories.Delete(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrCategoryNotFound) {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return err
}
