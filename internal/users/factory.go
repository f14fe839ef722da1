package users

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/corvusHold/rentmail/internal/config"
	evdomain "github.com/corvusHold/rentmail/internal/events/domain"
	"github.com/corvusHold/rentmail/internal/logger"
	ctrl "github.com/corvusHold/rentmail/internal/users/controller"
	domain "github.com/corvusHold/rentmail/internal/users/domain"
	repo "github.com/corvusHold/rentmail/internal/users/repository"
	svc "github.com/corvusHold/rentmail/internal/users/service"
)

// Module holds the wired user store and service so other slices can look users up.
type Module struct {
	Repo    domain.Repository
	Service domain.Service
	ctrl    *ctrl.Controller
}

// NewModule wires the Postgres store, fronted by the Redis cache when rc is non-nil.
func NewModule(pg *pgxpool.Pool, rc *redis.Client, cfg config.Config, pub evdomain.Publisher, log zerolog.Logger) *Module {
	log = logger.Component(log, "users")
	var r domain.Repository = repo.New(pg)
	if rc != nil {
		r = repo.NewCached(r, rc, cfg.UserCacheTTL, log)
	}
	s := svc.New(r, pub, log)
	return &Module{Repo: r, Service: s, ctrl: ctrl.New(s, log)}
}

// Register mounts the users routes.
func (m *Module) Register(e *echo.Echo, auth echo.MiddlewareFunc) {
	m.ctrl.Register(e, auth)
}
