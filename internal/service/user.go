package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/storefront/storefront/internal/auth"
	"github.com/storefront/storefront/internal/metrics"
	"github.com/storefront/storefront/internal/model"
	"github.com/storefront/storefront/internal/repository"
)

// UserStore persists user accounts and their carts.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetCartData(ctx context.Context, userID string) (model.Cart, error)
	AdjustCartSlot(ctx context.Context, userID string, slot, delta int) (int, error)
}

// TokenIssuer issues session tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// UserService handles signup and login.
type UserService struct {
	store   UserStore
	tokens  TokenIssuer
	metrics metrics.Recorder
}

// NewUserService creates a new UserService.
func NewUserService(store UserStore, tokens TokenIssuer, recorder metrics.Recorder) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		store:   store,
		tokens:  tokens,
		metrics: recorder,
	}
}

// SignupInput defines input for creating an account.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput defines input for logging in.
type LoginInput struct {
	Email    string
	Password string
}

// Signup registers a new user with an empty cart and returns a session token.
// A duplicate email leaves the store untouched.
func (s *UserService) Signup(ctx context.Context, input SignupInput) (string, error) {
	email := strings.TrimSpace(input.Email)
	if err := validateEmail(email); err != nil {
		s.metrics.IncSignup(metrics.OutcomeInvalid)
		return "", err
	}
	if err := validatePassword(input.Password); err != nil {
		s.metrics.IncSignup(metrics.OutcomeInvalid)
		return "", err
	}
	if err := validateName(input.Username); err != nil {
		s.metrics.IncSignup(metrics.OutcomeInvalid)
		return "", err
	}

	_, err := s.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		s.metrics.IncSignup(metrics.OutcomeDuplicate)
		return "", ErrDuplicateEmail
	case !errors.Is(err, repository.ErrUserNotFound):
		s.metrics.IncSignup(metrics.OutcomeError)
		return "", storeErr("failed to look up email", err)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		s.metrics.IncSignup(metrics.OutcomeError)
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Name:         input.Username,
		Email:        email,
		PasswordHash: hash,
		CartData:     model.NewCart(),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent signup for the same email.
		if errors.Is(err, repository.ErrEmailExists) {
			s.metrics.IncSignup(metrics.OutcomeDuplicate)
			return "", ErrDuplicateEmail
		}
		s.metrics.IncSignup(metrics.OutcomeError)
		return "", storeErr("failed to create user", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.metrics.IncSignup(metrics.OutcomeError)
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.IncSignup(metrics.OutcomeSuccess)
	return token, nil
}

// Login checks credentials and returns a fresh session token.
func (s *UserService) Login(ctx context.Context, input LoginInput) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncLogin(metrics.OutcomeWrongEmail)
			return "", ErrWrongEmail
		}
		s.metrics.IncLogin(metrics.OutcomeError)
		return "", storeErr("failed to look up user", err)
	}

	ok, err := auth.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		s.metrics.IncLogin(metrics.OutcomeError)
		return "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.metrics.IncLogin(metrics.OutcomeWrongPassword)
		return "", ErrWrongPassword
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.metrics.IncLogin(metrics.OutcomeError)
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.IncLogin(metrics.OutcomeSuccess)
	return token, nil
}
