package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// ErrEmptySecret is returned when a TokenService is built without a secret.
var ErrEmptySecret = errors.New("token secret must not be empty")

// sessionClaims is the token payload: {"user":{"id":"..."}}.
// Tokens carry no expiry.
type sessionClaims struct {
	User sessionUser `json:"user"`
}

type sessionUser struct {
	ID string `json:"id"`
}

// GetExpirationTime and the other jwt.Claims methods report absent
// registered claims, so the parser only checks the signature.
func (c sessionClaims) GetExpirationTime() (*jwt.NumericDate, error) { return nil, nil }
func (c sessionClaims) GetIssuedAt() (*jwt.NumericDate, error)       { return nil, nil }
func (c sessionClaims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c sessionClaims) GetIssuer() (string, error)                   { return "", nil }
func (c sessionClaims) GetSubject() (string, error)                  { return "", nil }
func (c sessionClaims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }

// TokenService signs and verifies HS256 session tokens under one secret.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService for secret.
func NewTokenService(secret string) (*TokenService, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// Issue returns a signed token identifying userID.
func (s *TokenService) Issue(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		User: sessionUser{ID: userID},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature and returns the user ID it carries.
func (s *TokenService) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.User.ID == "" {
		return "", ErrInvalidToken
	}

	return claims.User.ID, nil
}
