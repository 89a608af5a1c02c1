package dto

import "time"

// AddProductRequest represents the request body for POST /addproduct.
type AddProductRequest struct {
	Name      string     `json:"name"`
	Image     string     `json:"image"`
	Category  string     `json:"category"`
	NewPrice  float64    `json:"new_price"`
	OldPrice  float64    `json:"old_price"`
	Available *bool      `json:"available,omitempty"`
	Date      *time.Time `json:"date,omitempty"`
}

// AddProductResponse is returned after a product is stored.
type AddProductResponse struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id"`
	Name    string `json:"name"`
}

// RemoveProductRequest represents the request body for POST /removeproduct.
type RemoveProductRequest struct {
	ID *int64 `json:"id"`
}

// RemoveProductResponse is returned after a product is deleted.
type RemoveProductResponse struct {
	Success bool   `json:"success"`
	Name    string `json:"name"`
}

// ErrorResponse is the failure body of the catalog endpoints.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// UploadResponse is returned by POST /upload. Success is numeric for
// compatibility with existing admin clients.
type UploadResponse struct {
	Success  int    `json:"success"`
	ImageURL string `json:"image_url"`
}
