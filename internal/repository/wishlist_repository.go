package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wishyoulucky/internal/domain"

	"github.com/google/uuid"
)

var ErrWishlistItemNotFound = errors.New("wishlist item not found")

// WishlistRepository stores the products a user has saved.
type WishlistRepository interface {
	Add(ctx context.Context, userID uuid.UUID, productID int64) error
	Remove(ctx context.Context, userID uuid.UUID, productID int64) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.WishlistItem, error)
}

type wishlistRepository struct {
	db *sql.DB
}

func NewWishlistRepository(db *sql.DB) WishlistRepository {
	return &wishlistRepository{db: db}
}

// Add saves a product; saving the same product twice is a no-op.
func (r *wishlistRepository) Add(ctx context.Context, userID uuid.UUID, productID int64) error {
	query := `
		INSERT INTO wishlist_items (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, userID, productID); err != nil {
		if isForeignKeyViolation(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to add wishlist item: %w", err)
	}

	return nil
}

func (r *wishlistRepository) Remove(ctx context.Context, userID uuid.UUID, productID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}

	return expectOneRow(result, ErrWishlistItemNotFound)
}

// ListByUser returns the saved products, most recently saved first.
func (r *wishlistRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.WishlistItem, error) {
	query := `
		SELECT w.id, w.user_id, w.product_id, w.created_at,
		       p.sku, p.name, p.slug, p.category, p.image, p.product_status, p.product_type,
		       p.selling_price, p.quantity
		FROM wishlist_items w
		JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC, w.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	defer rows.Close()

	items := []*domain.WishlistItem{}
	for rows.Next() {
		item := &domain.WishlistItem{Product: &domain.Product{Tags: []string{}}}
		err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.ProductID,
			&item.CreatedAt,
			&item.Product.SKU,
			&item.Product.Name,
			&item.Product.Slug,
			&item.Product.Category,
			&item.Product.Image,
			&item.Product.Status,
			&item.Product.ProductType,
			&item.Product.SellingPrice,
			&item.Product.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		item.Product.ID = item.ProductID
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wishlist: %w", err)
	}

	return items, nil
}
