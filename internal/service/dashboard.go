package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fixoo-app/fixoo/internal/convert"
	"github.com/fixoo-app/fixoo/internal/errs"
	"github.com/fixoo-app/fixoo/internal/model"
	"github.com/fixoo-app/fixoo/internal/store"
)

// errStore reports a write the entity store refused; the cause is in its log.
var errStore = errors.New("entity store write failed")

// Dashboard exposes the entity store to the admin API, translating the
// store's false/nil results into errors.
type Dashboard struct {
	store *store.Store
	log   *zap.Logger
}

// NewDashboard constructs a Dashboard over st.
func NewDashboard(st *store.Store, log *zap.Logger) *Dashboard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dashboard{store: st, log: log}
}

// ListUsers returns all users, or only those of typ when set.
func (d *Dashboard) ListUsers(ctx context.Context, typ model.UserType) ([]model.User, error) {
	if typ != "" && !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown user type %q", errs.ErrValidation, typ)
	}
	users := d.store.Users(ctx)
	if typ == "" {
		return users, nil
	}
	out := []model.User{}
	for _, u := range users {
		if u.Type == typ {
			out = append(out, u)
		}
	}
	return out, nil
}

// GetUser returns one user.
func (d *Dashboard) GetUser(ctx context.Context, id string) (*model.User, error) {
	u, ok := d.store.UserByID(ctx, id)
	if !ok {
		return nil, errs.ErrNotFound
	}
	return u, nil
}

// UpdateUser shallow-merges patch and returns the updated user. A phone
// already used by another user is rejected with errs.ErrAlreadyExists.
func (d *Dashboard) UpdateUser(ctx context.Context, patch model.UserPatch) (*model.User, error) {
	if patch.Type != nil && !patch.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown user type %q", errs.ErrValidation, *patch.Type)
	}
	if _, ok := d.store.UserByID(ctx, patch.ID); !ok {
		return nil, errs.ErrNotFound
	}
	if patch.Phone != nil {
		for _, other := range d.store.Users(ctx) {
			if other.Phone == *patch.Phone && other.ID != patch.ID {
				return nil, fmt.Errorf("phone %s: %w", *patch.Phone, errs.ErrAlreadyExists)
			}
		}
	}
	if !patch.Empty() && !d.store.SaveUserProfile(ctx, patch) {
		return nil, errStore
	}
	return d.GetUser(ctx, patch.ID)
}

// DeleteUser removes the user and its media.
func (d *Dashboard) DeleteUser(ctx context.Context, id string) error {
	if _, ok := d.store.UserByID(ctx, id); !ok {
		return errs.ErrNotFound
	}
	if !d.store.DeleteUserAccount(ctx, id) {
		return errStore
	}
	d.log.Info("user deleted", zap.String("user_id", id))
	return nil
}

// ListOrders returns orders passing f in stored order.
func (d *Dashboard) ListOrders(ctx context.Context, f convert.OrderFilter) ([]model.Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", errs.ErrValidation, f.Status)
	}
	out := []model.Order{}
	for _, o := range d.store.Orders(ctx) {
		if f.Match(o) {
			out = append(out, o)
		}
	}
	return out, nil
}

// GetOrder returns one order.
func (d *Dashboard) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	o, ok := d.store.OrderByID(ctx, id)
	if !ok {
		return nil, errs.ErrNotFound
	}
	return o, nil
}

// CreateOrder stores a pending order between an existing client and specialist.
func (d *Dashboard) CreateOrder(ctx context.Context, req convert.CreateOrderRequest) (*model.Order, error) {
	c, ok := d.store.UserByID(ctx, req.ClientID)
	if !ok || c.Type != model.UserTypeClient {
		return nil, fmt.Errorf("%w: unknown client %q", errs.ErrValidation, req.ClientID)
	}
	sp, ok := d.store.UserByID(ctx, req.SpecialistID)
	if !ok || sp.Type != model.UserTypeSpecialist {
		return nil, fmt.Errorf("%w: unknown specialist %q", errs.ErrValidation, req.SpecialistID)
	}
	o := req.ToOrder()
	if !d.store.SaveOrder(ctx, &o) {
		return nil, errStore
	}
	return &o, nil
}

// UpdateOrderStatus sets the status of order id.
func (d *Dashboard) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", errs.ErrValidation, status)
	}
	if _, ok := d.store.OrderByID(ctx, id); !ok {
		return nil, errs.ErrNotFound
	}
	if !d.store.SetOrderStatus(ctx, id, status) {
		return nil, errStore
	}
	return d.GetOrder(ctx, id)
}

// DeleteOrder removes order id.
func (d *Dashboard) DeleteOrder(ctx context.Context, id string) error {
	if _, ok := d.store.OrderByID(ctx, id); !ok {
		return errs.ErrNotFound
	}
	if !d.store.DeleteOrder(ctx, id) {
		return errStore
	}
	return nil
}

// Statistics counts orders per status and users per type.
func (d *Dashboard) Statistics(ctx context.Context) (model.Statistics, error) {
	var st model.Statistics
	for _, o := range d.store.Orders(ctx) {
		st.TotalOrders++
		switch o.Status {
		case model.OrderPending:
			st.ByStatus.Pending++
		case model.OrderAccepted:
			st.ByStatus.Accepted++
		case model.OrderRejected:
			st.ByStatus.Rejected++
		case model.OrderCompleted:
			st.ByStatus.Completed++
		}
	}
	for _, u := range d.store.Users(ctx) {
		st.TotalUsers++
		switch u.Type {
		case model.UserTypeClient:
			st.Clients++
		case model.UserTypeSpecialist:
			st.Specialists++
		}
	}
	return st, nil
}
