package store

import (
	"context"

	"github.com/fixoo-app/fixoo/internal/model"
)

// Orders returns the whole Order collection in stored order.
func (s *Store) Orders(ctx context.Context) []model.Order {
	orders, err := s.loadOrders(ctx)
	if err != nil {
		s.fail("orders", KeyOrders, err)
		return []model.Order{}
	}
	if orders == nil {
		return []model.Order{}
	}
	return orders
}

// OrderByID returns the Order with id.
func (s *Store) OrderByID(ctx context.Context, id string) (*model.Order, bool) {
	orders := s.Orders(ctx)
	if i := indexOfOrder(orders, id); i >= 0 {
		return &orders[i], true
	}
	return nil, false
}

// SaveOrder appends o to the Order collection. Referenced users are not
// checked. Missing id, date and status are filled in on o.
func (s *Store) SaveOrder(ctx context.Context, o *model.Order) bool {
	orders, err := s.loadOrders(ctx)
	if err != nil {
		s.fail("save_order", KeyOrders, err)
		return false
	}
	if o.ID == "" {
		o.ID = s.newID()
	}
	if o.Date.IsZero() {
		o.Date = s.now().UTC()
	}
	if o.Status == "" {
		o.Status = model.OrderPending
	}
	orders = append(orders, *o)
	if err := s.commitOrders(ctx, orders); err != nil {
		s.fail("save_order", KeyOrders, err)
		return false
	}
	return true
}

// OrdersFor filters orders by clientId or specialistId depending on role.
func (s *Store) OrdersFor(ctx context.Context, role model.UserType, userID string) []model.Order {
	out := []model.Order{}
	for _, o := range s.Orders(ctx) {
		switch {
		case role == model.UserTypeClient && o.ClientID == userID,
			role == model.UserTypeSpecialist && o.SpecialistID == userID:
			out = append(out, o)
		}
	}
	return out
}

// PendingOrdersForSpecialist returns the specialist's orders still pending.
func (s *Store) PendingOrdersForSpecialist(ctx context.Context, specialistID string) []model.Order {
	out := []model.Order{}
	for _, o := range s.Orders(ctx) {
		if o.SpecialistID == specialistID && o.Status == model.OrderPending {
			out = append(out, o)
		}
	}
	return out
}

// SetOrderStatus replaces the status of order id and stamps statusUpdatedAt.
// An unknown id or status leaves the collection untouched and returns false.
func (s *Store) SetOrderStatus(ctx context.Context, id string, status model.OrderStatus) bool {
	if !status.Valid() {
		return false
	}
	orders, err := s.loadOrders(ctx)
	if err != nil {
		s.fail("set_order_status", KeyOrders, err)
		return false
	}
	i := indexOfOrder(orders, id)
	if i < 0 {
		return false
	}
	now := s.now().UTC()
	orders[i].Status = status
	orders[i].StatusUpdatedAt = &now
	if err := s.commitOrders(ctx, orders); err != nil {
		s.fail("set_order_status", KeyOrders, err)
		return false
	}
	return true
}

// DeleteOrder removes order id. Only the admin API deletes orders.
func (s *Store) DeleteOrder(ctx context.Context, id string) bool {
	orders, err := s.loadOrders(ctx)
	if err != nil {
		s.fail("delete_order", KeyOrders, err)
		return false
	}
	i := indexOfOrder(orders, id)
	if i < 0 {
		return false
	}
	orders = append(orders[:i], orders[i+1:]...)
	if err := s.commitOrders(ctx, orders); err != nil {
		s.fail("delete_order", KeyOrders, err)
		return false
	}
	return true
}
