package model

import "testing"

func TestNewCart_AllSlotsZero(t *testing.T) {
	cart := NewCart()
	if len(cart) != CartSize {
		t.Fatalf("expected %d slots, got %d", CartSize, len(cart))
	}
	for i := 0; i < CartSize; i++ {
		if q, ok := cart[SlotKey(i)]; !ok || q != 0 {
			t.Fatalf("slot %d: expected present and 0, got %d (present=%v)", i, q, ok)
		}
	}
}

func TestValidSlot(t *testing.T) {
	tests := []struct {
		slot int
		want bool
	}{
		{-1, false},
		{0, true},
		{CartSize - 1, true},
		{CartSize, false},
	}
	for _, tt := range tests {
		if got := ValidSlot(tt.slot); got != tt.want {
			t.Errorf("ValidSlot(%d) = %v, want %v", tt.slot, got, tt.want)
		}
	}
}

func TestCart_CloneIsIndependent(t *testing.T) {
	cart := NewCart()
	clone := cart.Clone()
	clone[SlotKey(3)] = 7

	if cart.Quantity(3) != 0 {
		t.Fatalf("original mutated through clone: %d", cart.Quantity(3))
	}
	if clone.Quantity(3) != 7 {
		t.Fatalf("expected clone slot 3 = 7, got %d", clone.Quantity(3))
	}
}
