package domain

import (
	"time"

	"github.com/google/uuid"
)

type WishlistItem struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ProductID int64     `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
	Product   *Product  `json:"product,omitempty"`
}
