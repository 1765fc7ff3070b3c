package adminapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fixoo-app/fixoo/internal/convert"
	"github.com/fixoo-app/fixoo/internal/model"
)

// call performs Do with the response envelope and unwraps data into out.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var env convert.Envelope
	status, err := c.Do(ctx, method, path, body, &env)
	if err != nil {
		return err
	}
	if !env.Success {
		return &APIError{Status: status, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("adminapi: %s %s: decode data: %w", method, path, err)
		}
	}
	return nil
}

// --- auth ---

// Login authenticates and stores the token in the client's session.
func (c *Client) Login(ctx context.Context, username, password string) (*model.AdminUser, error) {
	if c.session == nil {
		return nil, errors.New("adminapi: login requires a session")
	}
	var resp convert.LoginResponse
	req := convert.LoginRequest{Username: username, Password: password}
	if err := c.call(ctx, http.MethodPost, "/admin/login", req, &resp); err != nil {
		return nil, err
	}
	if err := c.session.Save(ctx, resp.Token, resp.Admin); err != nil {
		return nil, fmt.Errorf("adminapi: save session: %w", err)
	}
	return &resp.Admin, nil
}

// Logout notifies the server and always clears the local session.
func (c *Client) Logout(ctx context.Context) error {
	err := c.call(ctx, http.MethodPost, "/admin/logout", nil, nil)
	if c.session != nil {
		if cerr := c.session.Clear(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Me returns the authenticated admin.
func (c *Client) Me(ctx context.Context) (*model.AdminUser, error) {
	var a model.AdminUser
	if err := c.call(ctx, http.MethodGet, "/admin/me", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// --- admins ---

// ListAdmins returns every admin account.
func (c *Client) ListAdmins(ctx context.Context) ([]model.AdminUser, error) {
	var out []model.AdminUser
	if err := c.call(ctx, http.MethodGet, "/admins", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateAdmin registers a new admin account.
func (c *Client) CreateAdmin(ctx context.Context, req convert.CreateAdminRequest) (*model.AdminUser, error) {
	var a model.AdminUser
	if err := c.call(ctx, http.MethodPost, "/admins", req, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteAdmin removes an admin account.
func (c *Client) DeleteAdmin(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/admins/"+url.PathEscape(id), nil, nil)
}

// --- users ---

// ListUsers returns all users, optionally of one type.
func (c *Client) ListUsers(ctx context.Context, typ model.UserType) ([]model.User, error) {
	path := "/users"
	if typ != "" {
		path += "?type=" + url.QueryEscape(string(typ))
	}
	var views []convert.UserView
	if err := c.call(ctx, http.MethodGet, path, nil, &views); err != nil {
		return nil, err
	}
	return convert.FromUserViews(views), nil
}

// GetUser returns one user.
func (c *Client) GetUser(ctx context.Context, id string) (*model.User, error) {
	var v convert.UserView
	if err := c.call(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &v); err != nil {
		return nil, err
	}
	u := convert.FromUserView(v)
	return &u, nil
}

// UpdateUser shallow-merges patch onto user patch.ID.
func (c *Client) UpdateUser(ctx context.Context, patch model.UserPatch) (*model.User, error) {
	var v convert.UserView
	if err := c.call(ctx, http.MethodPatch, "/users/"+url.PathEscape(patch.ID), patch, &v); err != nil {
		return nil, err
	}
	u := convert.FromUserView(v)
	return &u, nil
}

// DeleteUser removes a user and its media.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil)
}

// --- orders ---

// ListOrders returns orders matching f.
func (c *Client) ListOrders(ctx context.Context, f convert.OrderFilter) ([]model.Order, error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.ClientID != "" {
		q.Set("clientId", f.ClientID)
	}
	if f.SpecialistID != "" {
		q.Set("specialistId", f.SpecialistID)
	}
	path := "/orders"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []model.Order
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateOrder creates a pending order.
func (c *Client) CreateOrder(ctx context.Context, req convert.CreateOrderRequest) (*model.Order, error) {
	var o model.Order
	if err := c.call(ctx, http.MethodPost, "/orders", req, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// GetOrder returns one order.
func (c *Client) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	var o model.Order
	if err := c.call(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateOrderStatus sets the order status.
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error) {
	var o model.Order
	req := convert.StatusRequest{Status: status}
	if err := c.call(ctx, http.MethodPatch, "/orders/"+url.PathEscape(id)+"/status", req, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// DeleteOrder removes an order.
func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/orders/"+url.PathEscape(id), nil, nil)
}

// Statistics returns the dashboard summary.
func (c *Client) Statistics(ctx context.Context) (*model.Statistics, error) {
	var st model.Statistics
	if err := c.call(ctx, http.MethodGet, "/orders/statistics", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
