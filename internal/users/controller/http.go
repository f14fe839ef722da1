package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	authmw "github.com/corvusHold/rentmail/internal/auth/middleware"
	domain "github.com/corvusHold/rentmail/internal/users/domain"
)

type Controller struct {
	svc domain.Service
	log zerolog.Logger
}

func New(svc domain.Service, log zerolog.Logger) *Controller {
	return &Controller{svc: svc, log: log}
}

// Register mounts the admin user routes behind auth.
func (h *Controller) Register(e *echo.Echo, auth echo.MiddlewareFunc) {
	e.DELETE("/users/:uid", h.deleteUser, auth, authmw.RequirePrincipal)
}

func (h *Controller) deleteUser(c echo.Context) error {
	actor, _ := authmw.UserID(c)
	uid := c.Param("uid")
	if uid == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "uid required"})
	}

	err := h.svc.Delete(c.Request().Context(), actor, uid)
	switch {
	case err == nil:
		h.log.Info().Str("actor", actor).Str("uid", uid).Msg("user deleted")
		return c.JSON(http.StatusOK, map[string]bool{"success": true})
	case errors.Is(err, domain.ErrForbidden):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Admin access required"})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
	}
	h.log.Error().Err(err).Str("actor", actor).Str("uid", uid).Msg("delete user failed")
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete user"})
}
