package types

import "time"

// Product is a catalog entry. Deleted products are kept for order history
// but hidden from the storefront.
type Product struct {
	ID          int     `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Description string  `json:"description" db:"description"`
	Price       float64 `json:"price" db:"price"`
	ImageURL    string  `json:"imageUrl" db:"image_url"`
	Stock       int     `json:"stock" db:"stock"`
	Category    string  `json:"category" db:"category"`
	Subcategory string  `json:"subcategory" db:"subcategory"`
	Details     string  `json:"details" db:"details"`

	// Sizes lists the selectable sizes, e.g. ["S", "M", "L"].
	Sizes []string `json:"sizes" db:"sizes"`

	// SizePrices overrides Price per size when present.
	SizePrices map[string]float64 `json:"sizePrices" db:"size_prices"`

	Deleted   bool      `json:"deleted" db:"deleted"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ProductFilter narrows a catalog listing.
type ProductFilter struct {
	// Query matches product names case-insensitively.
	Query    string
	Category string
	Offset   int
	Limit    int
}
