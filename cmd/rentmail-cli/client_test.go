package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoadContract(t *testing.T) {
	bare := writeFile(t, "bare.json", `{"userId":"u1"}`)
	got, err := loadContract(bare)
	require.NoError(t, err)
	assert.JSONEq(t, `{"userId":"u1"}`, string(got))

	env := writeFile(t, "env.json", `{"contractData":{"userId":"u2"}}`)
	got, err = loadContract(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"userId":"u2"}`, string(got))

	_, err = loadContract(writeFile(t, "bad.json", `[1,2]`))
	assert.Error(t, err)
}

func TestClient_SendContract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sendEmail", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.JSONEq(t, `{"userId":"u1"}`, string(body["contractData"]))
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	require.NoError(t, NewClient(srv.URL, "tok").SendContract(context.Background(), json.RawMessage(`{"userId":"u1"}`)))
}

func TestClient_SendContractWithFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sendEmailWithAttachment", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.JSONEq(t, `{"userId":"u1"}`, r.FormValue("contractData"))
		f, fh, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "signed.pdf", fh.Filename)
		assert.Equal(t, "application/pdf", fh.Header.Get("Content-Type"))
		b, _ := io.ReadAll(f)
		assert.Equal(t, "%PDF-1.4", string(b))
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	path := writeFile(t, "signed.pdf", "%PDF-1.4")
	require.NoError(t, NewClient(srv.URL, "tok").SendContractWithFile(context.Background(), json.RawMessage(`{"userId":"u1"}`), path))
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/users/u 1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":"Admin access required"}`)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "tok").DeleteUser(context.Background(), "u 1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "Admin access required", apiErr.Message)
}

func TestClient_PingAndHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ping":
			_, _ = io.WriteString(w, `{"message":"pong"}`)
		case "/healthz":
			_, _ = io.WriteString(w, `{"status":"ok","db":"ok","cache":"disabled","version":"dev"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "")
	msg, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pong", msg)

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "disabled", h.Cache)
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "****", maskToken("abcd"))
	assert.Equal(t, "abcd****wxyz", maskToken("abcdEFGHwxyz"))
}

func TestClient_HealthDegradedKeepsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"status":"degraded","db":"down","cache":"ok","version":"dev"}`)
	}))
	defer srv.Close()

	h, err := NewClient(srv.URL, "").Health(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, "degraded", h.Status)
	assert.Equal(t, "down", h.DB)
}
