package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/corvusHold/rentmail/internal/auth"
	"github.com/corvusHold/rentmail/internal/config"
	"github.com/corvusHold/rentmail/internal/contracts"
	emailsvc "github.com/corvusHold/rentmail/internal/email/service"
	evsvc "github.com/corvusHold/rentmail/internal/events/service"
	"github.com/corvusHold/rentmail/internal/logger"
	"github.com/corvusHold/rentmail/internal/metrics"
	"github.com/corvusHold/rentmail/internal/platform/validation"
	"github.com/corvusHold/rentmail/internal/users"
	"github.com/corvusHold/rentmail/internal/version"
)

const metricsPath = "/metrics"

func main() {
	if handleCLICommand(os.Args[1:]) {
		return
	}
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.AppEnv, cfg.LogLevel)
	log.Info().Str("addr", cfg.AppAddr).Str("version", version.String()).Msg("starting api server")
	log.Debug().Msg(cfg.String())

	// Init Postgres
	pgCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid DATABASE_URL")
	}
	pgPool, err := pgxpool.NewWithConfig(context.Background(), pgCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to create pg pool")
	}
	defer pgPool.Close()

	// Init Redis/Valkey; caching and shared rate limits are off without it
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		defer redisClient.Close()
	}

	e := newEcho(cfg, log)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	authMW, err := auth.Middleware(ctx, cfg, logger.Component(log, "auth"))
	if err != nil {
		log.Fatal().Err(err).Msg("auth setup failed")
	}

	// Register domain routes via factories
	pub := evsvc.NewLogger(logger.Component(log, "audit"))
	mail := emailsvc.NewRouter(cfg, logger.Component(log, "email"))
	usersMod := users.NewModule(pgPool, redisClient, cfg, pub, log)
	usersMod.Register(e, authMW)
	if err := contracts.Register(e, cfg, usersMod.Service, mail, pub, redisClient, authMW, log); err != nil {
		log.Fatal().Err(err).Msg("contracts setup failed")
	}

	var cachePing pingFunc
	if redisClient != nil {
		cachePing = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	e.GET("/healthz", healthHandler(pgPool.Ping, cachePing))

	// Start server
	go func() {
		if err := e.Start(cfg.AppAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	log.Info().Msg("server stopped")
}

// newEcho builds the server with shared middleware and the unauthenticated routes.
func newEcho(cfg config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middlewares
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	}))
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(origin string) (bool, error) {
			return matchCORSOrigin(origin, cfg.CORSAllowedOrigins), nil
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(metrics.HTTPMiddleware(metricsPath))

	// Validator
	e.Validator = validation.New()

	e.GET("/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "pong"})
	})
	e.GET(metricsPath, metrics.Handler())
	return e
}
