package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wishyoulucky/internal/domain"
)

var ErrProductExtraNotFound = errors.New("product extra info not found")

// ProductExtraRepository stores the per-product detail sheet keyed by slug.
type ProductExtraRepository interface {
	Get(ctx context.Context, slug string) (*domain.ProductExtraInfo, error)
	Upsert(ctx context.Context, info *domain.ProductExtraInfo) error
	Delete(ctx context.Context, slug string) error
}

type productExtraRepository struct {
	db *sql.DB
}

func NewProductExtraRepository(db *sql.DB) ProductExtraRepository {
	return &productExtraRepository{db: db}
}

func (r *productExtraRepository) Get(ctx context.Context, slug string) (*domain.ProductExtraInfo, error) {
	query := `
		SELECT product_slug, brand, material, height_mm, width_mm, length_mm, bonus, created_at, updated_at
		FROM product_extra_info
		WHERE product_slug = $1
	`

	info := &domain.ProductExtraInfo{}
	err := r.db.QueryRowContext(ctx, query, slug).Scan(
		&info.ProductSlug,
		&info.Brand,
		&info.Material,
		&info.HeightMM,
		&info.WidthMM,
		&info.LengthMM,
		&info.Bonus,
		&info.CreatedAt,
		&info.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductExtraNotFound
		}
		return nil, fmt.Errorf("failed to get product extra info: %w", err)
	}

	return info, nil
}

// Upsert inserts or replaces the row for info.ProductSlug. An unknown slug
// yields ErrProductNotFound.
func (r *productExtraRepository) Upsert(ctx context.Context, info *domain.ProductExtraInfo) error {
	query := `
		INSERT INTO product_extra_info (product_slug, brand, material, height_mm, width_mm, length_mm, bonus)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (product_slug) DO UPDATE SET
			brand = EXCLUDED.brand,
			material = EXCLUDED.material,
			height_mm = EXCLUDED.height_mm,
			width_mm = EXCLUDED.width_mm,
			length_mm = EXCLUDED.length_mm,
			bonus = EXCLUDED.bonus
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		info.ProductSlug,
		info.Brand,
		info.Material,
		info.HeightMM,
		info.WidthMM,
		info.LengthMM,
		info.Bonus,
	).Scan(&info.CreatedAt, &info.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to save product extra info: %w", err)
	}

	return nil
}

func (r *productExtraRepository) Delete(ctx context.Context, slug string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM product_extra_info WHERE product_slug = $1`, slug)
	if err != nil {
		return fmt.Errorf("failed to delete product extra info: %w", err)
	}

	return expectOneRow(result, ErrProductExtraNotFound)
}
