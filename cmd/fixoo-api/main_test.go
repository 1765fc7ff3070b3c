package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fixoo-app/fixoo/internal/config"
	"github.com/fixoo-app/fixoo/internal/convert"
)

func parse(t *testing.T, args ...string) *config.Config {
	t.Helper()
	cfg, err := config.Parse(args, func(string) string { return "" }, io.Discard)
	require.NoError(t, err)
	return cfg
}

func TestNewHandler_MemoryBackendLogin(t *testing.T) {
	ctx := context.Background()
	log := zaptest.NewLogger(t)
	cfg := parse(t, "-jwt-key", "k", "-bootstrap-user", "root", "-bootstrap-password", "root-password")

	b, err := openBackend(ctx, cfg, log)
	require.NoError(t, err)
	defer b.close()

	h, err := newHandler(ctx, cfg, b, log)
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/admin/login", "application/json",
		strings.NewReader(`{"username":"root","password":"root-password"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env convert.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	var lr convert.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &lr))
	require.NotEmpty(t, lr.Token)
	require.Equal(t, "superadmin", lr.Admin.Role)
}

func TestOpenBackend_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	cfg := parse(t, "-jwt-key", "k", "-backend", "file", "-file", path)
	b, err := openBackend(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer b.close()

	require.NoError(t, b.kv.Set(context.Background(), "fixoo_users", []byte(`[]`)))
	require.FileExists(t, path)
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := parse(t, "-jwt-key", "k", "-addr", "127.0.0.1:0")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, run(ctx, cfg, zaptest.NewLogger(t)))
}
