package verifier

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/corvusHold/rentmail/internal/auth/domain"
)

// Ensure HS256 implements domain.Verifier
var _ domain.Verifier = (*HS256)(nil)

// HS256 verifies locally signed tokens. Subject carries the user uid.
type HS256 struct {
	key []byte
}

func NewHS256(signingKey string) *HS256 { return &HS256{key: []byte(signingKey)} }

func (v *HS256) Name() string { return "jwt" }

func (v *HS256) Verify(ctx context.Context, raw string) (domain.Principal, error) {
	tok, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		return v.key, nil
	}, jwt.WithLeeway(30*time.Second), jwt.WithIssuedAt(), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return domain.Principal{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Principal{}, fmt.Errorf("%w: invalid claims", domain.ErrInvalidToken)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return domain.Principal{}, fmt.Errorf("%w: missing subject", domain.ErrInvalidToken)
	}
	email, _ := claims["email"].(string)
	return domain.Principal{UID: sub, Email: email, Provider: v.Name()}, nil
}

// Sign issues a token for uid. Used by the CLI and tests against a jwt-mode server.
func (v *HS256) Sign(uid, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": uid,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if email != "" {
		claims["email"] = email
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.key)
}
