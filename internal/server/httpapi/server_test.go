package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fixoo-app/fixoo/internal/convert"
	"github.com/fixoo-app/fixoo/internal/kv"
	"github.com/fixoo-app/fixoo/internal/limiter"
	"github.com/fixoo-app/fixoo/internal/model"
	"github.com/fixoo-app/fixoo/internal/repository"
	"github.com/fixoo-app/fixoo/internal/service"
	"github.com/fixoo-app/fixoo/internal/store"
)

type fixture struct {
	srv   *httptest.Server
	auth  *service.AdminAuth
	store *store.Store
	token string
	admin model.AdminUser
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	ctx := context.Background()

	st := store.New(kv.NewMemory(), log)
	require.NoError(t, st.CommitUsers(ctx, []model.User{
		{ID: "c1", Phone: "+100", Password: "pw", Type: model.UserTypeClient, Name: "Ann"},
		{ID: "s1", Phone: "+200", Password: "pw", Type: model.UserTypeSpecialist, Name: "Bob", Available: true},
	}))

	lim := limiter.NewMemory(limiter.Policy{Window: time.Minute, MaxFails: 3, BlockFor: time.Minute}, nil)
	auth := service.NewAdminAuth(repository.NewMemoryAdmins(), []byte("test-key"), time.Hour, lim, log)
	_, err := auth.EnsureBootstrap(ctx, "root", "root-password")
	require.NoError(t, err)

	s := New(auth, service.NewDashboard(st, log), log, opts...)
	f := &fixture{srv: httptest.NewServer(s.Handler()), auth: auth, store: st}
	t.Cleanup(f.srv.Close)

	tok, admin, err := auth.Login(ctx, "root", "root-password", "127.0.0.1")
	require.NoError(t, err)
	f.token, f.admin = tok.AccessToken, admin
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any, auth bool) (int, convert.Envelope) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, rd)
	require.NoError(t, err)
	if auth {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env convert.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t)
	code, env := f.do(t, http.MethodGet, "/api/orders", nil, false)
	require.Equal(t, http.StatusUnauthorized, code)
	require.False(t, env.Success)

	f.token = "garbage"
	code, _ = f.do(t, http.MethodGet, "/api/orders", nil, true)
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	code, env := f.do(t, http.MethodPost, "/api/admin/login", convert.LoginRequest{Username: "root"}, false)
	require.Equal(t, http.StatusBadRequest, code)
	require.Contains(t, env.Message, "password")

	for i := 0; i < 2; i++ {
		code, _ = f.do(t, http.MethodPost, "/api/admin/login", convert.LoginRequest{Username: "root", Password: "nope"}, false)
		require.Equal(t, http.StatusUnauthorized, code)
	}
	code, _ = f.do(t, http.MethodPost, "/api/admin/login", convert.LoginRequest{Username: "root", Password: "nope"}, false)
	require.Equal(t, http.StatusTooManyRequests, code)
	code, _ = f.do(t, http.MethodPost, "/api/admin/login", convert.LoginRequest{Username: "root", Password: "root-password"}, false)
	require.Equal(t, http.StatusTooManyRequests, code)
}

func TestAdmins(t *testing.T) {
	f := newFixture(t)

	code, env := f.do(t, http.MethodGet, "/api/admin/me", nil, true)
	require.Equal(t, http.StatusOK, code)
	var me model.AdminUser
	require.NoError(t, json.Unmarshal(env.Data, &me))
	require.Equal(t, "root", me.Username)

	code, _ = f.do(t, http.MethodPost, "/api/admins", convert.CreateAdminRequest{Username: "op", Password: "short"}, true)
	require.Equal(t, http.StatusBadRequest, code)

	code, env = f.do(t, http.MethodPost, "/api/admins", convert.CreateAdminRequest{Username: "ops", Password: "long-enough"}, true)
	require.Equal(t, http.StatusCreated, code)
	var created model.AdminUser
	require.NoError(t, json.Unmarshal(env.Data, &created))

	code, _ = f.do(t, http.MethodPost, "/api/admins", convert.CreateAdminRequest{Username: "ops", Password: "long-enough"}, true)
	require.Equal(t, http.StatusConflict, code)

	code, _ = f.do(t, http.MethodDelete, "/api/admins/"+f.admin.ID, nil, true)
	require.Equal(t, http.StatusBadRequest, code)
	code, _ = f.do(t, http.MethodDelete, "/api/admins/"+created.ID, nil, true)
	require.Equal(t, http.StatusOK, code)
	code, _ = f.do(t, http.MethodDelete, "/api/admins/"+created.ID, nil, true)
	require.Equal(t, http.StatusNotFound, code)
}

func TestUsers(t *testing.T) {
	f := newFixture(t)

	code, env := f.do(t, http.MethodGet, "/api/users?type=specialist", nil, true)
	require.Equal(t, http.StatusOK, code)
	require.NotContains(t, string(env.Data), "password")
	var views []convert.UserView
	require.NoError(t, json.Unmarshal(env.Data, &views))
	require.Len(t, views, 1)
	require.Equal(t, "s1", views[0].ID)

	code, _ = f.do(t, http.MethodGet, "/api/users?type=robot", nil, true)
	require.Equal(t, http.StatusBadRequest, code)

	code, env = f.do(t, http.MethodPatch, "/api/users/s1", map[string]any{"city": "Bukhara"}, true)
	require.Equal(t, http.StatusOK, code)
	var v convert.UserView
	require.NoError(t, json.Unmarshal(env.Data, &v))
	require.Equal(t, "Bukhara", v.City)
	require.Equal(t, "Bob", v.Name)

	code, _ = f.do(t, http.MethodPatch, "/api/users/s1", map[string]any{"shoeSize": 44}, true)
	require.Equal(t, http.StatusBadRequest, code)

	code, env = f.do(t, http.MethodPatch, "/api/users/s1", map[string]any{"phone": "+100"}, true)
	require.Equal(t, http.StatusConflict, code)
	require.False(t, env.Success)
	u, ok := f.store.UserByID(context.Background(), "s1")
	require.True(t, ok)
	require.Equal(t, "+200", u.Phone)

	code, _ = f.do(t, http.MethodDelete, "/api/users/c1", nil, true)
	require.Equal(t, http.StatusOK, code)
	code, _ = f.do(t, http.MethodGet, "/api/users/c1", nil, true)
	require.Equal(t, http.StatusNotFound, code)
}

func TestOrders(t *testing.T) {
	f := newFixture(t)

	code, env := f.do(t, http.MethodPost, "/api/orders", convert.CreateOrderRequest{ClientID: "c1", SpecialistID: "s1", Description: "leaky tap"}, true)
	require.Equal(t, http.StatusCreated, code)
	var o model.Order
	require.NoError(t, json.Unmarshal(env.Data, &o))
	require.Equal(t, model.OrderPending, o.Status)
	require.Len(t, o.ID, 16)

	code, _ = f.do(t, http.MethodPost, "/api/orders", convert.CreateOrderRequest{ClientID: "c1"}, true)
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(t, http.MethodPatch, "/api/orders/"+o.ID+"/status", map[string]string{"status": "lost"}, true)
	require.Equal(t, http.StatusBadRequest, code)

	code, env = f.do(t, http.MethodPatch, "/api/orders/"+o.ID+"/status", convert.StatusRequest{Status: model.OrderAccepted}, true)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &o))
	require.Equal(t, model.OrderAccepted, o.Status)

	code, _ = f.do(t, http.MethodPatch, "/api/orders/nope/status", convert.StatusRequest{Status: model.OrderAccepted}, true)
	require.Equal(t, http.StatusNotFound, code)

	code, env = f.do(t, http.MethodGet, "/api/orders?status=accepted&specialistId=s1", nil, true)
	require.Equal(t, http.StatusOK, code)
	var list []model.Order
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)

	code, env = f.do(t, http.MethodGet, "/api/orders/statistics", nil, true)
	require.Equal(t, http.StatusOK, code)
	var st model.Statistics
	require.NoError(t, json.Unmarshal(env.Data, &st))
	require.Equal(t, 1, st.ByStatus.Accepted)
	require.Equal(t, 2, st.TotalUsers)

	code, _ = f.do(t, http.MethodDelete, "/api/orders/"+o.ID, nil, true)
	require.Equal(t, http.StatusOK, code)
	code, _ = f.do(t, http.MethodGet, "/api/orders/"+o.ID, nil, true)
	require.Equal(t, http.StatusNotFound, code)
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, WithRateLimit(0.001, 1))
	code, _ := f.do(t, http.MethodGet, "/api/orders", nil, true)
	require.Equal(t, http.StatusOK, code)
	code, env := f.do(t, http.MethodGet, "/api/orders", nil, true)
	require.Equal(t, http.StatusTooManyRequests, code)
	require.False(t, env.Success)
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t)
	code, env := f.do(t, http.MethodGet, "/api/nothing", nil, true)
	require.Equal(t, http.StatusNotFound, code)
	require.False(t, env.Success)
}
