package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fixoo-app/fixoo/internal/convert"
	"github.com/fixoo-app/fixoo/internal/errs"
)

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req convert.LoginRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	tok, admin, err := s.auth.Login(r.Context(), req.Username, req.Password, remoteIP(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, convert.LoginResponse{Token: tok.AccessToken, ExpiresAt: tok.ExpiresAt, Admin: admin})
}

// logout only acknowledges; tokens are stateless and expire on their own.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, nil)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	id, ok := AdminIDFromCtx(r.Context())
	if !ok {
		s.fail(w, r, errs.ErrUnauthorized)
		return
	}
	a, err := s.auth.Admin(r.Context(), id)
	if err != nil {
		// a deleted admin's token is no longer honoured
		s.fail(w, r, errs.ErrUnauthorized)
		return
	}
	writeData(w, http.StatusOK, a)
}

func (s *Server) listAdmins(w http.ResponseWriter, r *http.Request) {
	list, err := s.auth.ListAdmins(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, list)
}

func (s *Server) createAdmin(w http.ResponseWriter, r *http.Request) {
	var req convert.CreateAdminRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	a, err := s.auth.CreateAdmin(r.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, a)
}

func (s *Server) deleteAdmin(w http.ResponseWriter, r *http.Request) {
	actor, _ := AdminIDFromCtx(r.Context())
	if err := s.auth.DeleteAdmin(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, nil)
}
