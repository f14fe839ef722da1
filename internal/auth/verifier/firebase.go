package verifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/corvusHold/rentmail/internal/auth/domain"
)

// Ensure Firebase implements domain.Verifier
var _ domain.Verifier = (*Firebase)(nil)

const (
	firebaseIssuerPrefix = "https://securetoken.google.com/"
	firebaseJWKSURL      = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
)

// Firebase verifies Firebase Authentication ID tokens. They are OIDC ID tokens issued
// by securetoken.google.com/<project> with the project id as audience.
type Firebase struct {
	verifier *oidc.IDTokenVerifier
}

type firebaseClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	UserID        string `json:"user_id"`
}

// NewFirebase verifies against Google's published signing keys. ctx scopes key refreshes.
func NewFirebase(ctx context.Context, projectID string) (*Firebase, error) {
	return NewFirebaseWithKeySet(projectID, oidc.NewRemoteKeySet(ctx, firebaseJWKSURL))
}

// NewFirebaseWithKeySet allows injecting the signing keys.
func NewFirebaseWithKeySet(projectID string, keys oidc.KeySet) (*Firebase, error) {
	if projectID == "" {
		return nil, errors.New("firebase: project id is required (FIREBASE_PROJECT_ID or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	v := oidc.NewVerifier(firebaseIssuerPrefix+projectID, keys, &oidc.Config{
		ClientID:             projectID,
		SupportedSigningAlgs: []string{oidc.RS256},
	})
	return &Firebase{verifier: v}, nil
}

func (f *Firebase) Name() string { return "firebase" }

func (f *Firebase) Verify(ctx context.Context, raw string) (domain.Principal, error) {
	tok, err := f.verifier.Verify(ctx, raw)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	var claims firebaseClaims
	if err := tok.Claims(&claims); err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	uid := tok.Subject
	if uid == "" {
		uid = claims.UserID
	}
	if uid == "" {
		return domain.Principal{}, fmt.Errorf("%w: missing subject", domain.ErrInvalidToken)
	}
	return domain.Principal{UID: uid, Email: claims.Email, Provider: f.Name()}, nil
}
