// Package convert maps domain models to the JSON wire types of the admin API
// and back, and declares the request/response payloads shared by the server
// and the admin client.
package convert

import (
	"encoding/json"
	"time"

	"github.com/fixoo-app/fixoo/internal/model"
)

// --- helpers ---

func msToTime(ms int64) *time.Time {
	if ms == 0 {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}

func timeToMs(t *time.Time) int64 {
	if t == nil || t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// --- envelope ---

// Envelope wraps every API response. Callers must check Success.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// --- users ---

// UserView is the public shape of a User: no password, times as RFC 3339.
type UserView struct {
	ID               string         `json:"id"`
	Phone            string         `json:"phone"`
	Type             model.UserType `json:"type"`
	Name             string         `json:"name,omitempty"`
	Surname          string         `json:"surname,omitempty"`
	City             string         `json:"city,omitempty"`
	Specialization   string         `json:"specialization,omitempty"`
	Experience       string         `json:"experience,omitempty"`
	Description      string         `json:"description,omitempty"`
	Avatar           string         `json:"avatar,omitempty"`
	Language         string         `json:"language,omitempty"`
	Available        bool           `json:"available"`
	CreatedAt        *time.Time     `json:"createdAt,omitempty"`
	SessionExpiresAt *time.Time     `json:"sessionExpiresAt,omitempty"`
}

// ToUserView drops the password and converts epoch-ms fields to times.
func ToUserView(u model.User) UserView {
	return UserView{
		ID:               u.ID,
		Phone:            u.Phone,
		Type:             u.Type,
		Name:             u.Name,
		Surname:          u.Surname,
		City:             u.City,
		Specialization:   u.Specialization,
		Experience:       u.Experience,
		Description:      u.Description,
		Avatar:           u.Avatar,
		Language:         u.Language,
		Available:        u.Available,
		CreatedAt:        msToTime(u.CreatedAt),
		SessionExpiresAt: msToTime(u.TokenExpiry),
	}
}

// ToUserViews converts a slice, never returning nil.
func ToUserViews(users []model.User) []UserView {
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserView(u))
	}
	return out
}

// FromUserView rebuilds a domain User. The password is always empty.
func FromUserView(v UserView) model.User {
	return model.User{
		ID:             v.ID,
		Phone:          v.Phone,
		Type:           v.Type,
		Name:           v.Name,
		Surname:        v.Surname,
		City:           v.City,
		Specialization: v.Specialization,
		Experience:     v.Experience,
		Description:    v.Description,
		Avatar:         v.Avatar,
		Language:       v.Language,
		Available:      v.Available,
		CreatedAt:      timeToMs(v.CreatedAt),
		TokenExpiry:    timeToMs(v.SessionExpiresAt),
	}
}

// FromUserViews converts a slice, never returning nil.
func FromUserViews(views []UserView) []model.User {
	out := make([]model.User, 0, len(views))
	for _, v := range views {
		out = append(out, FromUserView(v))
	}
	return out
}

// --- requests ---

// LoginRequest authenticates an admin.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Admin     model.AdminUser `json:"admin"`
}

// CreateAdminRequest registers a new dashboard operator.
type CreateAdminRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=admin superadmin"`
}

// CreateOrderRequest creates an order on behalf of a client.
type CreateOrderRequest struct {
	ClientID     string `json:"clientId" validate:"required"`
	SpecialistID string `json:"specialistId" validate:"required"`
	Description  string `json:"description" validate:"required,max=2000"`
	Location     string `json:"location" validate:"max=500"`
}

// ToOrder builds a pending order from the request.
func (r CreateOrderRequest) ToOrder() model.Order {
	return model.Order{
		ClientID:     r.ClientID,
		SpecialistID: r.SpecialistID,
		Description:  r.Description,
		Location:     r.Location,
		Status:       model.OrderPending,
	}
}

// StatusRequest changes an order status.
type StatusRequest struct {
	Status model.OrderStatus `json:"status" validate:"required,oneof=pending accepted rejected completed"`
}

// OrderFilter narrows order listings. Empty fields match everything.
type OrderFilter struct {
	Status       model.OrderStatus
	ClientID     string
	SpecialistID string
}

// Match reports whether o passes the filter.
func (f OrderFilter) Match(o model.Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.ClientID != "" && o.ClientID != f.ClientID {
		return false
	}
	if f.SpecialistID != "" && o.SpecialistID != f.SpecialistID {
		return false
	}
	return true
}
