package service

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation limits.
const (
	MaxEmailLength    = 254
	MaxNameLength     = 100
	MinPasswordLength = 1
	MaxPasswordLength = 256

	MaxProductNameLength = 200
	MaxCategoryLength    = 50
	MaxImageURLLength    = 2048
)

// emailRegex is deliberately loose: one @, no spaces, a dot in the domain.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// categoryRegex allows lowercase words joined by hyphens.
var categoryRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if len(email) > MaxEmailLength {
		return fmt.Errorf("%w: email exceeds %d characters", ErrInvalidInput, MaxEmailLength)
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("%w: email is not well formed", ErrInvalidInput)
	}
	return nil
}

func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if n > MaxPasswordLength {
		return fmt.Errorf("%w: password exceeds %d characters", ErrInvalidInput, MaxPasswordLength)
	}
	return nil
}

func validateName(name string) error {
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidInput, MaxNameLength)
	}
	return nil
}

func validateProduct(in AddProductInput) error {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case utf8.RuneCountInString(name) > MaxProductNameLength:
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidInput, MaxProductNameLength)
	case in.Category == "":
		return fmt.Errorf("%w: category is required", ErrInvalidInput)
	case len(in.Category) > MaxCategoryLength || !categoryRegex.MatchString(in.Category):
		return fmt.Errorf("%w: category %q is not valid", ErrInvalidInput, in.Category)
	case len(in.Image) > MaxImageURLLength:
		return fmt.Errorf("%w: image URL exceeds %d characters", ErrInvalidInput, MaxImageURLLength)
	case in.NewPrice < 0 || in.OldPrice < 0:
		return fmt.Errorf("%w: prices must not be negative", ErrInvalidInput)
	}
	return nil
}
