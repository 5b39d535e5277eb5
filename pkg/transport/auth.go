package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Credentials produce the Authorization header of a request. An empty value
// sends no header.
type Credentials interface {
	Authorization(ctx context.Context) (string, error)
}

// BearerToken is a static bearer token
type BearerToken string

// Authorization implements Credentials
func (t BearerToken) Authorization(context.Context) (string, error) {
	if t == "" {
		return "", nil
	}
	return "Bearer " + string(t), nil
}

// JWTSigner signs a fresh HS256 token for every request
type JWTSigner struct {
	Secret   []byte
	Issuer   string
	Subject  string
	Audience []string
	TTL      time.Duration

	// Now overrides the clock (tests)
	Now func() time.Time
}

// NewJWTSigner creates a signer with the given secret key and token TTL
func NewJWTSigner(secret string, ttl time.Duration) *JWTSigner {
	return &JWTSigner{Secret: []byte(secret), TTL: ttl}
}

// Token returns a signed token
func (s *JWTSigner) Token() (string, error) {
	if len(s.Secret) == 0 {
		return "", errors.New("jwt signer: empty secret")
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	claims := jwt.RegisteredClaims{
		Issuer:    s.Issuer,
		Subject:   s.Subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.New().String(),
	}
	if len(s.Audience) > 0 {
		claims.Audience = jwt.ClaimStrings(s.Audience)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("jwt signer: %w", err)
	}
	return signed, nil
}

// Authorization implements Credentials
func (s *JWTSigner) Authorization(context.Context) (string, error) {
	token, err := s.Token()
	if err != nil {
		return "", err
	}
	return "Bearer " + token, nil
}
