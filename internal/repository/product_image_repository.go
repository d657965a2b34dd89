package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wishyoulucky/internal/domain"

	"github.com/lib/pq"
)

var ErrProductImageNotFound = errors.New("product image not found")

// ProductImageRepository manages the gallery images of products.
type ProductImageRepository interface {
	Add(ctx context.Context, image *domain.ProductImage) error
	Delete(ctx context.Context, productID, imageID int64) error
	ListByProduct(ctx context.Context, productID int64) ([]domain.ProductImage, error)
	Reorder(ctx context.Context, productID int64, imageIDs []int64) error
}

type productImageRepository struct {
	db *sql.DB
}

func NewProductImageRepository(db *sql.DB) ProductImageRepository {
	return &productImageRepository{db: db}
}

// Add appends an image at the end of the product gallery.
func (r *productImageRepository) Add(ctx context.Context, image *domain.ProductImage) error {
	query := `
		INSERT INTO product_images (product_id, image_url, "order", variant_name)
		VALUES ($1, $2, (SELECT COALESCE(MAX("order") + 1, 0) FROM product_images WHERE product_id = $1), $3)
		RETURNING id, "order", created_at
	`

	err := r.db.QueryRowContext(ctx, query, image.ProductID, image.ImageURL, image.VariantName).
		Scan(&image.ID, &image.Order, &image.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add product image: %w", err)
	}

	return nil
}

func (r *productImageRepository) Delete(ctx context.Context, productID, imageID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM product_images WHERE id = $1 AND product_id = $2`, imageID, productID)
	if err != nil {
		return fmt.Errorf("failed to delete product image: %w", err)
	}

	return expectOneRow(result, ErrProductImageNotFound)
}

func (r *productImageRepository) ListByProduct(ctx context.Context, productID int64) ([]domain.ProductImage, error) {
	query := `
		SELECT id, product_id, image_url, "order", variant_name, created_at
		FROM product_images
		WHERE product_id = $1
		ORDER BY "order" ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list product images: %w", err)
	}
	defer rows.Close()

	images := []domain.ProductImage{}
	for rows.Next() {
		var img domain.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.ImageURL, &img.Order, &img.VariantName, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product image: %w", err)
		}
		images = append(images, img)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product images: %w", err)
	}

	return images, nil
}

// Reorder assigns gallery positions following the order of imageIDs.
func (r *productImageRepository) Reorder(ctx context.Context, productID int64, imageIDs []int64) error {
	if len(imageIDs) == 0 {
		return nil
	}

	query := `
		UPDATE product_images AS pi
		SET "order" = ord.pos - 1
		FROM unnest($2::bigint[]) WITH ORDINALITY AS ord(id, pos)
		WHERE pi.id = ord.id AND pi.product_id = $1
	`

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, productID, pq.Array(imageIDs))
		if err != nil {
			return fmt.Errorf("failed to reorder product images: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected != int64(len(imageIDs)) {
			return ErrProductImageNotFound
		}
		return nil
	})
}
