package model

import "time"

// Category groups products.  Names are unique.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Product is an item a verified provider sells alongside services.
type Product struct {
	ID             string         `json:"id"`
	ProviderID     string         `json:"provider_id"`
	CategoryID     *string        `json:"category_id,omitempty"`
	Name           string         `json:"name"`
	SKU            string         `json:"sku"`
	Description    string         `json:"description,omitempty"`
	Price          float64        `json:"price"`
	Stock          int            `json:"stock"`
	Specifications Specifications `json:"specifications"`
	Dimensions     *Dimensions    `json:"dimensions,omitempty"`
	IsActive       bool           `json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ProductFilter holds the supported product list filters.
type ProductFilter struct {
	ProviderID string
	CategoryID string
	Search     string
	ActiveOnly bool
}
