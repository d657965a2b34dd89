package domain

import (
	"time"

	"github.com/google/uuid"
)

// Banner is a homepage hero slide.
type Banner struct {
	ID        uuid.UUID `json:"id"`
	ImageURL  string    `json:"image_url"`
	Position  int       `json:"position"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryBanner is the header image shown on a category page.
type CategoryBanner struct {
	ID           uuid.UUID `json:"id"`
	CategoryID   *int64    `json:"category_id,omitempty"`
	CategoryName string    `json:"category_name"`
	ImageURL     string    `json:"image_url"`
	LinkURL      string    `json:"link_url,omitempty"`
	Active       bool      `json:"active"`
	UpdatedAt    time.Time `json:"updated_at"`
}
