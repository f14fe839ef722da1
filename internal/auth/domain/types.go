package domain

import (
	"context"
	"errors"
)

// Principal is the caller identified by a verified bearer token.
type Principal struct {
	UID      string
	Email    string
	Provider string
}

// Verifier validates a raw bearer token against the identity provider.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (Principal, error)
	// Name identifies the provider in logs and metrics.
	Name() string
}

var ErrInvalidToken = errors.New("invalid token")
