package adminapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fixoo-app/fixoo/internal/convert"
	"github.com/fixoo-app/fixoo/internal/errs"
	"github.com/fixoo-app/fixoo/internal/kv"
	"github.com/fixoo-app/fixoo/internal/model"
)

func writeEnvelope(t *testing.T, w http.ResponseWriter, status int, data any) {
	t.Helper()
	env := convert.Envelope{Success: status < 400}
	if data != nil {
		b, err := json.Marshal(data)
		require.NoError(t, err)
		env.Data = b
	}
	if !env.Success {
		env.Message = http.StatusText(status)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(env))
}

func TestLogin_StoresSessionAndLogoutClears(t *testing.T) {
	admin := model.AdminUser{ID: "a1", Username: "root", Role: "superadmin"}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/login", func(w http.ResponseWriter, r *http.Request) {
		var req convert.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "secret-pass" {
			writeEnvelope(t, w, http.StatusUnauthorized, nil)
			return
		}
		writeEnvelope(t, w, http.StatusOK, convert.LoginResponse{Token: "jwt-1", ExpiresAt: time.Now().Add(time.Hour), Admin: admin})
	})
	mux.HandleFunc("/api/admin/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer jwt-1" {
			writeEnvelope(t, w, http.StatusUnauthorized, nil)
			return
		}
		writeEnvelope(t, w, http.StatusOK, admin)
	})
	mux.HandleFunc("/api/admin/logout", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusOK, nil)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	store := kv.NewMemory()
	sess := NewSession(store, zaptest.NewLogger(t))
	c := New(srv.URL, WithSession(sess), WithLogger(zaptest.NewLogger(t)))

	_, err := c.Login(ctx, "root", "wrong")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	require.Empty(t, sess.Token(ctx))

	got, err := c.Login(ctx, "root", "secret-pass")
	require.NoError(t, err)
	require.Equal(t, admin, *got)
	require.Equal(t, "jwt-1", sess.Token(ctx))
	require.Equal(t, &admin, sess.Admin(ctx))

	me, err := c.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "root", me.Username)

	require.NoError(t, c.Logout(ctx))
	require.Empty(t, sess.Token(ctx))
	require.Nil(t, sess.Admin(ctx))
	require.Zero(t, store.Keys())
}

func TestLogin_WithoutSession(t *testing.T) {
	c := New("http://fixoo.invalid")
	_, err := c.Login(context.Background(), "u", "p")
	require.Error(t, err)
}

func TestTypedHelpers(t *testing.T) {
	orders := []model.Order{
		{ID: "o1", ClientID: "c1", SpecialistID: "s1", Status: model.OrderPending},
	}
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/orders", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeEnvelope(t, w, http.StatusOK, orders)
	})
	mux.HandleFunc("/api/orders/statistics", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusOK, model.Statistics{TotalOrders: 1, ByStatus: model.OrderCounts{Pending: 1}})
	})
	mux.HandleFunc("/api/orders/missing", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusNotFound, nil)
	})
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "specialist", r.URL.Query().Get("type"))
		writeEnvelope(t, w, http.StatusOK, convert.ToUserViews([]model.User{{ID: "s1", Type: model.UserTypeSpecialist, Password: "x"}}))
	})
	mux.HandleFunc("/api/users/s1", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		body, _ := io.ReadAll(r.Body)
		var p model.UserPatch
		require.NoError(t, json.Unmarshal(body, &p))
		u := model.User{ID: "s1", Type: model.UserTypeSpecialist}
		p.Apply(&u)
		writeEnvelope(t, w, http.StatusOK, convert.ToUserView(u))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	c := New(srv.URL, WithLogger(zaptest.NewLogger(t)))

	got, err := c.ListOrders(ctx, convert.OrderFilter{Status: model.OrderPending, SpecialistID: "s1"})
	require.NoError(t, err)
	require.Equal(t, orders, got)
	require.Equal(t, "specialistId=s1&status=pending", gotQuery)

	st, err := c.Statistics(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, st.ByStatus.Pending)

	_, err = c.GetOrder(ctx, "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)

	users, err := c.ListUsers(ctx, model.UserTypeSpecialist)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Empty(t, users[0].Password)

	city := "Tashkent"
	u, err := c.UpdateUser(ctx, model.UserPatch{ID: "s1", City: &city})
	require.NoError(t, err)
	require.Equal(t, "Tashkent", u.City)
}
