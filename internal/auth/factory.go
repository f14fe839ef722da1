package auth

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/corvusHold/rentmail/internal/auth/domain"
	"github.com/corvusHold/rentmail/internal/auth/middleware"
	"github.com/corvusHold/rentmail/internal/auth/verifier"
	"github.com/corvusHold/rentmail/internal/config"
)

// NewVerifier builds the token verifier selected by AUTH_PROVIDER.
func NewVerifier(ctx context.Context, cfg config.Config) (domain.Verifier, error) {
	switch cfg.AuthProvider {
	case "jwt":
		return verifier.NewHS256(cfg.JWTSigningKey), nil
	case "firebase", "":
		v, err := verifier.NewFirebase(ctx, cfg.FirebaseProjectID)
		if err != nil {
			return nil, fmt.Errorf("firebase verifier: %w", err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("unsupported auth provider %q", cfg.AuthProvider)
}

// Middleware returns the bearer middleware for the configured provider.
func Middleware(ctx context.Context, cfg config.Config, log zerolog.Logger) (echo.MiddlewareFunc, error) {
	v, err := NewVerifier(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return middleware.NewBearer(v, log), nil
}
