package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/storefront/storefront/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

const userColumns = `id, name, email, password_hash, cart_data, created_at`

// CreateUser inserts a new user into the database.
// Returns ErrEmailExists when the email is already registered.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, cart_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.CartData,
		user.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return wrapErr("failed to create user", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, wrapErr("failed to get user by ID", err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, wrapErr("failed to get user by email", err)
	}

	return user, nil
}

// GetCartData returns the stored cart of a user.
func (r *Repository) GetCartData(ctx context.Context, userID string) (model.Cart, error) {
	var cart model.Cart
	err := r.pool.QueryRow(ctx, `SELECT cart_data FROM users WHERE id = $1`, userID).Scan(&cart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, wrapErr("failed to get cart", err)
	}
	if cart == nil {
		cart = model.Cart{}
	}
	return cart, nil
}

// AdjustCartSlot adds delta to one cart slot in a single statement and
// returns the new quantity. The result never drops below zero.
// Concurrent calls on the same user serialize on the row lock, so no
// update is lost.
func (r *Repository) AdjustCartSlot(ctx context.Context, userID string, slot, delta int) (int, error) {
	query := `
		UPDATE users
		SET cart_data = jsonb_set(
			cart_data,
			ARRAY[$2::text],
			to_jsonb(GREATEST(COALESCE((cart_data->>$2::text)::int, 0) + $3::int, 0)),
			true
		)
		WHERE id = $1
		RETURNING (cart_data->>$2::text)::int
	`

	var qty int
	err := r.pool.QueryRow(ctx, query, userID, model.SlotKey(slot), delta).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, wrapErr("failed to adjust cart slot", err)
	}
	return qty, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CartData,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
