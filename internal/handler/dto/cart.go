package dto

// CartItemRequest identifies the cart slot to add to or remove from.
type CartItemRequest struct {
	ItemID *int `json:"itemId"`
}
