// Package httpapi exposes the admin dashboard JSON API over chi.
package httpapi

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fixoo-app/fixoo/internal/service"
)

// Server wires services into HTTP handlers.
type Server struct {
	auth     *service.AdminAuth
	dash     *service.Dashboard
	log      *zap.Logger
	validate *validator.Validate
	limiter  *rate.Limiter
}

// Option customizes a Server.
type Option func(*Server)

// WithRateLimit guards /api with a token bucket. rps <= 0 disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// New constructs a Server with injected services.
func New(auth *service.AdminAuth, dash *service.Dashboard, log *zap.Logger, opts ...Option) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{auth: auth, dash: dash, log: log, validate: newValidator()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Logging(s.log))
	r.Use(Recover(s.log))

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(RateLimit(s.limiter))
		}
		r.Post("/admin/login", s.login)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)

			r.Post("/admin/logout", s.logout)
			r.Get("/admin/me", s.me)

			r.Get("/admins", s.listAdmins)
			r.Post("/admins", s.createAdmin)
			r.Delete("/admins/{id}", s.deleteAdmin)

			r.Get("/users", s.listUsers)
			r.Get("/users/{id}", s.getUser)
			r.Patch("/users/{id}", s.updateUser)
			r.Delete("/users/{id}", s.deleteUser)

			r.Get("/orders", s.listOrders)
			r.Post("/orders", s.createOrder)
			r.Get("/orders/statistics", s.statistics)
			r.Get("/orders/{id}", s.getOrder)
			r.Patch("/orders/{id}/status", s.updateOrderStatus)
			r.Delete("/orders/{id}", s.deleteOrder)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeFail(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeFail(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
