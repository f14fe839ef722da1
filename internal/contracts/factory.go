package contracts

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/corvusHold/rentmail/internal/config"
	ctrl "github.com/corvusHold/rentmail/internal/contracts/controller"
	svc "github.com/corvusHold/rentmail/internal/contracts/service"
	"github.com/corvusHold/rentmail/internal/contracts/templates"
	edomain "github.com/corvusHold/rentmail/internal/email/domain"
	evdomain "github.com/corvusHold/rentmail/internal/events/domain"
	"github.com/corvusHold/rentmail/internal/logger"
	rl "github.com/corvusHold/rentmail/internal/platform/ratelimit"
	udomain "github.com/corvusHold/rentmail/internal/users/domain"
)

// Register wires the contract notifier and mounts the submission routes.
// Rate limit counters live in Redis when rc is non-nil.
func Register(e *echo.Echo, cfg config.Config, users udomain.Service, mail edomain.Sender, pub evdomain.Publisher, rc *redis.Client, auth echo.MiddlewareFunc, log zerolog.Logger) error {
	log = logger.Component(log, "contracts")
	tmpl, err := templates.New(cfg.Location())
	if err != nil {
		return fmt.Errorf("load email templates: %w", err)
	}
	n := svc.New(users, mail, tmpl, pub, cfg.PlatformURL, log)

	var store rl.Store
	if rc != nil {
		store = rl.NewRedisStore(rc)
	}
	ctrl.New(n, cfg.MaxUploadBytes, log).
		WithRateLimit(store, cfg.RateLimitSend, cfg.RateLimitWindow).
		Register(e, auth)
	return nil
}
