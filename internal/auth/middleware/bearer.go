package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/corvusHold/rentmail/internal/auth/domain"
	"github.com/corvusHold/rentmail/internal/metrics"
)

const ctxPrincipalKey = "auth_principal"

// NewBearer returns an Echo middleware that verifies the Authorization bearer token
// with v and stores the resulting principal in the context.
func NewBearer(v domain.Verifier, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing or invalid authorization header"})
			}
			tokStr := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			p, err := v.Verify(c.Request().Context(), tokStr)
			if err != nil {
				metrics.IncTokenVerification(v.Name(), "failure")
				log.Warn().Err(err).Str("provider", v.Name()).Str("path", c.Path()).Msg("token verification failed")
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}
			metrics.IncTokenVerification(v.Name(), "success")

			c.Set(ctxPrincipalKey, p)
			return next(c)
		}
	}
}

// RequirePrincipal rejects requests that reached the handler without a verified caller.
func RequirePrincipal(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := Principal(c); !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "You must be logged in."})
		}
		return next(c)
	}
}

// Principal returns the authenticated caller from context.
func Principal(c echo.Context) (domain.Principal, bool) {
	v := c.Get(ctxPrincipalKey)
	if v == nil {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok && p.UID != ""
}

// UserID returns the authenticated caller's uid from context.
func UserID(c echo.Context) (string, bool) {
	p, ok := Principal(c)
	return p.UID, ok
}

// SetPrincipal stores p on the context; handlers under test use it to skip token verification.
func SetPrincipal(c echo.Context, p domain.Principal) {
	c.Set(ctxPrincipalKey, p)
}
