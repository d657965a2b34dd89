package service

import (
	"context"

	"wishyoulucky/internal/domain"
	"wishyoulucky/internal/repository"

	"github.com/google/uuid"
)

type WishlistService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*domain.WishlistItem, error)
	Add(ctx context.Context, userID uuid.UUID, productID int64) error
	Remove(ctx context.Context, userID uuid.UUID, productID int64) error
}

type wishlistService struct {
	repo repository.WishlistRepository
}

func NewWishlistService(repo repository.WishlistRepository) WishlistService {
	return &wishlistService{repo: repo}
}

// List strips admin-only product fields.
func (s *wishlistService) List(ctx context.Context, userID uuid.UUID) ([]*domain.WishlistItem, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.Product != nil {
			item.Product = item.Product.Public()
		}
	}
	return items, nil
}

// Add is idempotent.
func (s *wishlistService) Add(ctx context.Context, userID uuid.UUID, productID int64) error {
	return s.repo.Add(ctx, userID, productID)
}

func (s *wishlistService) Remove(ctx context.Context, userID uuid.UUID, productID int64) error {
	return s.repo.Remove(ctx, userID, productID)
}
