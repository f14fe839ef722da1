package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/corvusHold/rentmail/internal/metrics"
	"github.com/corvusHold/rentmail/internal/version"
)

type pingFunc func(ctx context.Context) error

// healthHandler pings the database and, when configured, the cache. A nil
// cache ping reports the cache as disabled. A down database answers 503; the
// cache is optional and never fails the check.
func healthHandler(db, cache pingFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 500*time.Millisecond)
		defer cancel()

		dbStatus := "ok"
		start := time.Now()
		err := db(ctx)
		metrics.ObserveDBPing(time.Since(start).Seconds())
		metrics.SetDBUp(err == nil)
		if err != nil {
			dbStatus = "down"
		}

		cacheStatus := "disabled"
		if cache != nil {
			cacheStatus = "ok"
			start = time.Now()
			err := cache(ctx)
			metrics.ObserveRedisPing(time.Since(start).Seconds())
			metrics.SetRedisUp(err == nil)
			if err != nil {
				cacheStatus = "down"
			}
		}

		status, code := "ok", http.StatusOK
		if dbStatus != "ok" {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		return c.JSON(code, map[string]any{
			"status":  status,
			"time":    time.Now().UTC().Format(time.RFC3339),
			"db":      dbStatus,
			"cache":   cacheStatus,
			"version": version.String(),
		})
	}
}
