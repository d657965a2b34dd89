package service

import (
	"context"
	"fmt"

	"wishyoulucky/internal/cart"
	"wishyoulucky/internal/domain"
	"wishyoulucky/internal/repository"
)

// CartService mirrors every cart mutation to the store: load, mutate, save.
type CartService interface {
	Get(ctx context.Context, cartID string) (*cart.Cart, error)
	AddItem(ctx context.Context, cartID string, productID int64, variant string, quantity int) (*cart.Cart, error)
	UpdateItem(ctx context.Context, cartID string, productID int64, variant string, quantity int) (*cart.Cart, error)
	RemoveItem(ctx context.Context, cartID string, productID int64, variant string) (*cart.Cart, error)
	Clear(ctx context.Context, cartID string) error
}

type cartService struct {
	store    cart.Store
	products repository.ProductRepository
}

func NewCartService(store cart.Store, products repository.ProductRepository) CartService {
	return &cartService{store: store, products: products}
}

// Get returns the cart with every line repriced from the catalog, so its
// totals are what checkout will charge.
func (s *cartService) Get(ctx context.Context, cartID string) (*cart.Cart, error) {
	c, err := s.store.Load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return s.reprice(ctx, c)
}

// reprice overwrites name, price and type with the current catalog values.
// Lines whose product is gone keep their stored values; checkout rejects them.
func (s *cartService) reprice(ctx context.Context, c *cart.Cart) (*cart.Cart, error) {
	if c.IsEmpty() {
		return c, nil
	}
	ids := make([]int64, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}
	for i := range c.Items {
		p, ok := products[c.Items[i].ProductID]
		if !ok {
			continue
		}
		c.Items[i].Name = p.Name
		c.Items[i].Price = p.SellingPrice
		c.Items[i].ProductType = p.TypeOrDefault()
	}
	return c, nil
}

// AddItem snapshots the current catalog price. Sold out products are refused.
func (s *cartService) AddItem(ctx context.Context, cartID string, productID int64, variant string, quantity int) (*cart.Cart, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status == domain.ProductStatusSoldOut {
		return nil, ErrProductUnavailable
	}

	return s.mutate(ctx, cartID, func(c *cart.Cart) error {
		c.Add(cart.Item{
			ProductID:   product.ID,
			Name:        product.Name,
			SKU:         product.SKU,
			Image:       product.Image,
			Price:       product.SellingPrice,
			Quantity:    quantity,
			ProductType: product.TypeOrDefault(),
			Variant:     variant,
		})
		return nil
	})
}

func (s *cartService) UpdateItem(ctx context.Context, cartID string, productID int64, variant string, quantity int) (*cart.Cart, error) {
	return s.mutate(ctx, cartID, func(c *cart.Cart) error {
		if !c.UpdateQuantity(productID, variant, quantity) {
			return ErrCartItemNotFound
		}
		return nil
	})
}

func (s *cartService) RemoveItem(ctx context.Context, cartID string, productID int64, variant string) (*cart.Cart, error) {
	return s.mutate(ctx, cartID, func(c *cart.Cart) error {
		if !c.Remove(productID, variant) {
			return ErrCartItemNotFound
		}
		return nil
	})
}

func (s *cartService) Clear(ctx context.Context, cartID string) error {
	return s.store.Delete(ctx, cartID)
}

func (s *cartService) mutate(ctx context.Context, cartID string, fn func(*cart.Cart) error) (*cart.Cart, error) {
	c, err := s.store.Update(ctx, cartID, fn)
	if err != nil {
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}
	return s.reprice(ctx, c)
}
