// Package service provides business logic for the application.
package service

import (
	"errors"
	"fmt"

	"github.com/storefront/storefront/internal/repository"
)

// Service errors.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateEmail     = errors.New("existing user found with same email address")
	ErrWrongEmail         = errors.New("wrong email id")
	ErrWrongPassword      = errors.New("wrong password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidSlot        = errors.New("cart slot out of range")
	ErrProductNotFound    = errors.New("product not found")
	ErrProductPersistence = errors.New("product could not be persisted")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// storeErr tags connectivity failures with ErrStoreUnavailable and
// otherwise wraps err with op.
func storeErr(op string, err error) error {
	if errors.Is(err, repository.ErrUnavailable) {
		return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
