package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fixoo-app/fixoo/internal/convert"
	"github.com/fixoo-app/fixoo/internal/model"
)

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.dash.ListUsers(r.Context(), model.UserType(r.URL.Query().Get("type")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, convert.ToUserViews(users))
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.dash.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, convert.ToUserView(*u))
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var patch model.UserPatch
	if err := s.decode(w, r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}
	patch.ID = chi.URLParam(r, "id")
	u, err := s.dash.UpdateUser(r.Context(), patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, convert.ToUserView(*u))
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, nil)
}
