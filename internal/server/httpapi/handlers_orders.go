package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fixoo-app/fixoo/internal/convert"
	"github.com/fixoo-app/fixoo/internal/model"
)

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := convert.OrderFilter{
		Status:       model.OrderStatus(q.Get("status")),
		ClientID:     q.Get("clientId"),
		SpecialistID: q.Get("specialistId"),
	}
	orders, err := s.dash.ListOrders(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, orders)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req convert.CreateOrderRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	o, err := s.dash.CreateOrder(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, o)
}

func (s *Server) statistics(w http.ResponseWriter, r *http.Request) {
	st, err := s.dash.Statistics(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, st)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.dash.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, o)
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req convert.StatusRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	o, err := s.dash.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, o)
}

func (s *Server) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.DeleteOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, nil)
}
