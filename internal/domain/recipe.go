package domain

import (
	"fmt"
	"time"
)

// Recipe represents a user-owned recipe. Tags and Ingredients are loaded
// alongside the recipe and are owned by the same user.
type Recipe struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	TimeMinutes int    `json:"time_minutes"`
	PriceCents  int64  `json:"price_cents"`
	Link        string `json:"link,omitempty"`
	Description string `json:"description,omitempty"`

	// Image attachment. Key is an opaque random identifier into image
	// storage; it carries no user data and changes on every upload.
	ImageKey      string `json:"image_key,omitempty"`
	ImageExt      string `json:"image_ext,omitempty"`
	ImageBlurhash string `json:"image_blurhash,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Tags        []Tag        `json:"tags"`
	Ingredients []Ingredient `json:"ingredients"`
}

// PriceString formats the price in whole currency units with two decimal
// places, e.g. 500 cents renders as "5.00".
func (r *Recipe) PriceString() string {
	return fmt.Sprintf("%d.%02d", r.PriceCents/100, r.PriceCents%100)
}

// HasImage reports whether the recipe has an image attached.
func (r *Recipe) HasImage() bool {
	return r.ImageKey != ""
}

// Touch updates the UpdatedAt timestamp.
func (r *Recipe) Touch() {
	r.UpdatedAt = time.Now()
}
