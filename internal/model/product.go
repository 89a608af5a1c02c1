package model

import "time"

// Product is a catalog entry. ID is assigned by the store.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	Category  string    `json:"category"`
	NewPrice  float64   `json:"new_price"`
	OldPrice  float64   `json:"old_price"`
	Date      time.Time `json:"date"`
	Available bool      `json:"available"`
}

// Catalog categories used by the storefront views.
const (
	CategoryWomen = "women"
	CategoryMen   = "men"
	CategoryKids  = "kid"
)
