package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvusHold/rentmail/internal/config"
	"github.com/corvusHold/rentmail/internal/logger"
)

func TestPing(t *testing.T) {
	e := newEcho(config.Config{CORSAllowedOrigins: []string{"*"}}, logger.Nop())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	e := newEcho(config.Config{CORSAllowedOrigins: []string{"*"}}, logger.Nop())
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "rentmail_http_requests_total"))
}

func TestHealthz(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("refused") }

	cases := []struct {
		name      string
		db, cache pingFunc
		wantCode   int
		wantStatus string
		wantDB     string
		wantCache  string
	}{
		{"all up", ok, ok, http.StatusOK, "ok", "ok", "ok"},
		{"db down", down, ok, http.StatusServiceUnavailable, "degraded", "down", "ok"},
		{"cache disabled", ok, nil, http.StatusOK, "ok", "ok", "disabled"},
		{"cache down", ok, down, http.StatusOK, "ok", "ok", "down"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEcho(config.Config{CORSAllowedOrigins: []string{"*"}}, logger.Nop())
			e.GET("/healthz", healthHandler(tc.db, tc.cache))
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			require.Equal(t, tc.wantCode, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.wantStatus, body["status"])
			assert.Equal(t, tc.wantDB, body["db"])
			assert.Equal(t, tc.wantCache, body["cache"])
			assert.Equal(t, "dev", body["version"])
		})
	}
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	e := newEcho(config.Config{CORSAllowedOrigins: []string{"https://*.rentals.example"}}, logger.Nop())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://app.rentals.example")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.rentals.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
