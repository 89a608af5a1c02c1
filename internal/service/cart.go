package service

import (
	"context"
	"errors"
	"time"

	"github.com/storefront/storefront/internal/metrics"
	"github.com/storefront/storefront/internal/model"
	"github.com/storefront/storefront/internal/repository"
)

// CartService mutates per-user quantity carts.
type CartService struct {
	store   UserStore
	metrics metrics.Recorder
}

// NewCartService creates a new CartService.
func NewCartService(store UserStore, recorder metrics.Recorder) *CartService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CartService{store: store, metrics: recorder}
}

// AddItem increments the quantity in slot by one and returns the new quantity.
func (s *CartService) AddItem(ctx context.Context, userID string, slot int) (int, error) {
	return s.adjust(ctx, userID, slot, 1, metrics.CartOpAdd)
}

// RemoveItem decrements the quantity in slot by one, never below zero,
// and returns the new quantity.
func (s *CartService) RemoveItem(ctx context.Context, userID string, slot int) (int, error) {
	return s.adjust(ctx, userID, slot, -1, metrics.CartOpRemove)
}

// GetCart returns the full cart of userID.
func (s *CartService) GetCart(ctx context.Context, userID string) (model.Cart, error) {
	cart, err := s.store.GetCartData(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeErr("failed to get cart", err)
	}
	return cart, nil
}

func (s *CartService) adjust(ctx context.Context, userID string, slot, delta int, op string) (int, error) {
	if !model.ValidSlot(slot) {
		return 0, ErrInvalidSlot
	}

	start := time.Now()
	qty, err := s.store.AdjustCartSlot(ctx, userID, slot, delta)
	s.metrics.ObserveCartMutationDuration(time.Since(start))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, storeErr("failed to update cart", err)
	}

	s.metrics.IncCartMutation(op)
	return qty, nil
}
