// Package model defines domain entities for the application.
package model

import (
	"strconv"
	"time"
)

// CartSize is the number of quantity slots every cart carries.
const CartSize = 300

// Cart maps a slot (decimal string key, "0".."299") to the quantity held.
// Keys are strings so the map serializes the same way it is stored.
type Cart map[string]int

// NewCart returns a cart with every slot present and set to zero.
func NewCart() Cart {
	cart := make(Cart, CartSize)
	for i := 0; i < CartSize; i++ {
		cart[strconv.Itoa(i)] = 0
	}
	return cart
}

// ValidSlot reports whether slot addresses an existing cart entry.
func ValidSlot(slot int) bool {
	return slot >= 0 && slot < CartSize
}

// SlotKey returns the storage key for slot.
func SlotKey(slot int) string {
	return strconv.Itoa(slot)
}

// Quantity returns the quantity held in slot, or 0 when absent.
func (c Cart) Quantity(slot int) int {
	return c[SlotKey(slot)]
}

// Clone returns an independent copy of the cart.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// User is a registered shopper.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CartData     Cart      `json:"cartData"`
	CreatedAt    time.Time `json:"date"`
}
