package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wishyoulucky/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrBannerNotFound         = errors.New("banner not found")
	ErrCategoryBannerNotFound = errors.New("category banner not found")
)

// BannerRepository stores homepage hero banners and per-category header banners.
type BannerRepository interface {
	Create(ctx context.Context, banner *domain.Banner) error
	Update(ctx context.Context, banner *domain.Banner) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, activeOnly bool) ([]*domain.Banner, error)

	UpsertCategoryBanner(ctx context.Context, banner *domain.CategoryBanner) error
	DeleteCategoryBanner(ctx context.Context, id uuid.UUID) error
	ListCategoryBanners(ctx context.Context) ([]*domain.CategoryBanner, error)
	FindCategoryBanner(ctx context.Context, categoryName string) (*domain.CategoryBanner, error)
}

type bannerRepository struct {
	db *sql.DB
}

func NewBannerRepository(db *sql.DB) BannerRepository {
	return &bannerRepository{db: db}
}

func (r *bannerRepository) Create(ctx context.Context, banner *domain.Banner) error {
	if banner.ID == uuid.Nil {
		banner.ID = uuid.New()
	}

	query := `
		INSERT INTO banners (id, image_url, position, active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, banner.ID, banner.ImageURL, banner.Position, banner.Active).
		Scan(&banner.CreatedAt, &banner.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create banner: %w", err)
	}

	return nil
}

func (r *bannerRepository) Update(ctx context.Context, banner *domain.Banner) error {
	query := `
		UPDATE banners SET image_url = $2, position = $3, active = $4
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, banner.ID, banner.ImageURL, banner.Position, banner.Active).
		Scan(&banner.CreatedAt, &banner.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBannerNotFound
		}
		return fmt.Errorf("failed to update banner: %w", err)
	}

	return nil
}

func (r *bannerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM banners WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete banner: %w", err)
	}

	return expectOneRow(result, ErrBannerNotFound)
}

// List returns banners ordered by position.
func (r *bannerRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Banner, error) {
	query := `SELECT id, image_url, position, active, created_at, updated_at FROM banners`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY position ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list banners: %w", err)
	}
	defer rows.Close()

	banners := []*domain.Banner{}
	for rows.Next() {
		b := &domain.Banner{}
		if err := rows.Scan(&b.ID, &b.ImageURL, &b.Position, &b.Active, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan banner: %w", err)
		}
		banners = append(banners, b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating banners: %w", err)
	}

	return banners, nil
}

const categoryBannerColumns = `id, category_id, category_name, image_url, link_url, active, updated_at`

func scanCategoryBanner(row rowScanner) (*domain.CategoryBanner, error) {
	b := &domain.CategoryBanner{}
	var categoryID sql.NullInt64
	if err := row.Scan(&b.ID, &categoryID, &b.CategoryName, &b.ImageURL, &b.LinkURL, &b.Active, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if categoryID.Valid {
		id := categoryID.Int64
		b.CategoryID = &id
	}
	return b, nil
}

// UpsertCategoryBanner keeps one banner per category name.
func (r *bannerRepository) UpsertCategoryBanner(ctx context.Context, banner *domain.CategoryBanner) error {
	if banner.ID == uuid.Nil {
		banner.ID = uuid.New()
	}

	query := `
		INSERT INTO category_banners (id, category_id, category_name, image_url, link_url, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (category_name) DO UPDATE
		SET category_id = EXCLUDED.category_id,
		    image_url = EXCLUDED.image_url,
		    link_url = EXCLUDED.link_url,
		    active = EXCLUDED.active
		RETURNING id, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		banner.ID,
		banner.CategoryID,
		banner.CategoryName,
		banner.ImageURL,
		banner.LinkURL,
		banner.Active,
	).Scan(&banner.ID, &banner.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to upsert category banner: %w", err)
	}

	return nil
}

func (r *bannerRepository) DeleteCategoryBanner(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM category_banners WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category banner: %w", err)
	}

	return expectOneRow(result, ErrCategoryBannerNotFound)
}

func (r *bannerRepository) ListCategoryBanners(ctx context.Context) ([]*domain.CategoryBanner, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryBannerColumns+` FROM category_banners ORDER BY category_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list category banners: %w", err)
	}
	defer rows.Close()

	banners := []*domain.CategoryBanner{}
	for rows.Next() {
		b, err := scanCategoryBanner(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category banner: %w", err)
		}
		banners = append(banners, b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category banners: %w", err)
	}

	return banners, nil
}

// FindCategoryBanner returns the active banner for a category name.
func (r *bannerRepository) FindCategoryBanner(ctx context.Context, categoryName string) (*domain.CategoryBanner, error) {
	query := `SELECT ` + categoryBannerColumns + ` FROM category_banners WHERE category_name = $1 AND active = TRUE`

	b, err := scanCategoryBanner(r.db.QueryRowContext(ctx, query, categoryName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryBannerNotFound
		}
		return nil, fmt.Errorf("failed to find category banner: %w", err)
	}

	return b, nil
}
