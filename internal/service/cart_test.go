package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/storefront/storefront/internal/auth"
	"github.com/storefront/storefront/internal/metrics"
	"github.com/storefront/storefront/internal/model"
	"github.com/storefront/storefront/internal/testutil"
)

func newCartFixture(t *testing.T) (*CartService, *testutil.MemoryStore, string) {
	t.Helper()
	store := testutil.NewMemoryStore()
	user := testutil.NewTestUser(t, testutil.UniqueEmail("cart"))
	require.NoError(t, store.CreateUser(context.Background(), user))
	return NewCartService(store, metrics.NewInMemory()), store, user.ID
}

func TestCart_AddAndRemove(t *testing.T) {
	svc, _, userID := newCartFixture(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		qty, err := svc.AddItem(ctx, userID, 5)
		require.NoError(t, err)
		assert.Equal(t, i, qty)
	}
	qty, err := svc.RemoveItem(ctx, userID, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, qty)

	cart, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Quantity(5))
	assert.Len(t, cart, model.CartSize)
}

func TestCart_RemoveFloorsAtZero(t *testing.T) {
	svc, _, userID := newCartFixture(t)
	ctx := context.Background()

	qty, err := svc.RemoveItem(ctx, userID, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, qty)

	_, err = svc.AddItem(ctx, userID, 7)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = svc.RemoveItem(ctx, userID, 7)
		require.NoError(t, err)
	}

	cart, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, cart.Quantity(7))
}

func TestCart_AddThenRemoveIsNetDifference(t *testing.T) {
	svc, _, userID := newCartFixture(t)
	ctx := context.Background()

	const adds, removes = 6, 4
	for i := 0; i < adds; i++ {
		_, err := svc.AddItem(ctx, userID, 42)
		require.NoError(t, err)
	}
	for i := 0; i < removes; i++ {
		_, err := svc.RemoveItem(ctx, userID, 42)
		require.NoError(t, err)
	}

	cart, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, adds-removes, cart.Quantity(42))
}

func TestCart_ConcurrentAddsAreNotLost(t *testing.T) {
	svc, _, userID := newCartFixture(t)
	ctx := context.Background()

	const n = 50
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := svc.AddItem(gctx, userID, 1)
			return err
		})
	}
	require.NoError(t, g.Wait())

	cart, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, n, cart.Quantity(1))
}

func TestCart_InvalidSlotLeavesCartUnchanged(t *testing.T) {
	svc, _, userID := newCartFixture(t)
	ctx := context.Background()

	for _, slot := range []int{-1, model.CartSize, 10_000} {
		_, err := svc.AddItem(ctx, userID, slot)
		assert.ErrorIs(t, err, ErrInvalidSlot)
		_, err = svc.RemoveItem(ctx, userID, slot)
		assert.ErrorIs(t, err, ErrInvalidSlot)
	}

	cart, err := svc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, model.NewCart(), cart)
}

func TestCart_UnknownUser(t *testing.T) {
	svc, _, _ := newCartFixture(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "missing", 1)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = svc.GetCart(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

// Scenario: signup, add slot 5 twice, remove once, cart shows 1.
func TestCart_SignupScenario(t *testing.T) {
	tokens, err := auth.NewTokenService("test-secret")
	require.NoError(t, err)
	store := testutil.NewMemoryStore()
	users := NewUserService(store, tokens, nil)
	carts := NewCartService(store, nil)
	ctx := context.Background()

	token, err := users.Signup(ctx, SignupInput{Username: "ann", Email: "ann@example.com", Password: "pw"})
	require.NoError(t, err)
	userID, err := tokens.Verify(token)
	require.NoError(t, err)

	_, err = carts.AddItem(ctx, userID, 5)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, userID, 5)
	require.NoError(t, err)
	_, err = carts.RemoveItem(ctx, userID, 5)
	require.NoError(t, err)

	cart, err := carts.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Quantity(5))
	for i := 0; i < model.CartSize; i++ {
		if i != 5 {
			assert.Equal(t, 0, cart.Quantity(i), "slot %d", i)
		}
	}
}
