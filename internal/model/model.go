// Package model defines domain entities shared by stores, services and clients.
//
// Field names follow the JSON layout written by the Fixoo web client, so
// records persisted by either side stay readable.
package model

import "time"

// UserType distinguishes order creators from order fulfillers.
type UserType string

const (
	UserTypeClient     UserType = "client"
	UserTypeSpecialist UserType = "specialist"
)

// Valid reports whether t is a known user type.
func (t UserType) Valid() bool {
	return t == UserTypeClient || t == UserTypeSpecialist
}

// OrderStatus is the lifecycle state of an Order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderAccepted  OrderStatus = "accepted"
	OrderRejected  OrderStatus = "rejected"
	OrderCompleted OrderStatus = "completed"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderAccepted, OrderRejected, OrderCompleted:
		return true
	}
	return false
}

// User is a marketplace account. Password is stored in plaintext for
// compatibility with records written by the web client.
type User struct {
	ID             string   `json:"id"`
	Phone          string   `json:"phone"`
	Password       string   `json:"password,omitempty"`
	Type           UserType `json:"type"`
	Name           string   `json:"name,omitempty"`
	Surname        string   `json:"surname,omitempty"`
	City           string   `json:"city,omitempty"`
	Specialization string   `json:"specialization,omitempty"`
	Experience     string   `json:"experience,omitempty"`
	Description    string   `json:"description,omitempty"`
	Avatar         string   `json:"avatar,omitempty"`
	Language       string   `json:"language,omitempty"`
	Available      bool     `json:"available,omitempty"`
	CreatedAt      int64    `json:"createdAt,omitempty"`   // epoch ms
	TokenExpiry    int64    `json:"tokenExpiry,omitempty"` // epoch ms
}

// Expired reports whether the user's token expiry is not after now.
func (u *User) Expired(now time.Time) bool {
	return u.TokenExpiry <= now.UnixMilli()
}

// UserPatch is a shallow profile update: nil fields are left untouched.
type UserPatch struct {
	ID             string    `json:"id"`
	Phone          *string   `json:"phone,omitempty"`
	Password       *string   `json:"password,omitempty"`
	Type           *UserType `json:"type,omitempty"`
	Name           *string   `json:"name,omitempty"`
	Surname        *string   `json:"surname,omitempty"`
	City           *string   `json:"city,omitempty"`
	Specialization *string   `json:"specialization,omitempty"`
	Experience     *string   `json:"experience,omitempty"`
	Description    *string   `json:"description,omitempty"`
	Avatar         *string   `json:"avatar,omitempty"`
	Language       *string   `json:"language,omitempty"`
	Available      *bool     `json:"available,omitempty"`
}

// Apply overwrites u's fields with every non-nil field of p. ID is never changed.
func (p UserPatch) Apply(u *User) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&u.Phone, p.Phone)
	set(&u.Password, p.Password)
	set(&u.Name, p.Name)
	set(&u.Surname, p.Surname)
	set(&u.City, p.City)
	set(&u.Specialization, p.Specialization)
	set(&u.Experience, p.Experience)
	set(&u.Description, p.Description)
	set(&u.Avatar, p.Avatar)
	set(&u.Language, p.Language)
	if p.Type != nil {
		u.Type = *p.Type
	}
	if p.Available != nil {
		u.Available = *p.Available
	}
}

// Empty reports whether the patch carries no field updates.
func (p UserPatch) Empty() bool {
	return p.Phone == nil && p.Password == nil && p.Type == nil && p.Name == nil &&
		p.Surname == nil && p.City == nil && p.Specialization == nil && p.Experience == nil &&
		p.Description == nil && p.Avatar == nil && p.Language == nil && p.Available == nil
}

// Order is a job request from a client to a specialist.
type Order struct {
	ID              string      `json:"id"`
	ClientID        string      `json:"clientId"`
	SpecialistID    string      `json:"specialistId"`
	Description     string      `json:"description"`
	Location        string      `json:"location"`
	Status          OrderStatus `json:"status"`
	Date            time.Time   `json:"date"`
	StatusUpdatedAt *time.Time  `json:"statusUpdatedAt,omitempty"`
}

// Media describes a single uploaded file in a user's portfolio.
type Media struct {
	ID        string    `json:"id"`
	Kind      string    `json:"type"` // photo | video | document
	URL       string    `json:"url"`
	Name      string    `json:"name,omitempty"`
	MimeType  string    `json:"mimeType,omitempty"`
	Size      int64     `json:"size,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// AdminUser is a dashboard operator account.
type AdminUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Admin is the server-side admin record. Sensitive fields are never serialized.
type Admin struct {
	AdminUser
	PwdHash []byte `json:"-"` // Argon2id(password, Salt)
	Salt    []byte `json:"-"`
}

// Tokens collects issued access tokens.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time
}

// OrderCounts groups orders per status.
type OrderCounts struct {
	Pending   int `json:"pending"`
	Accepted  int `json:"accepted"`
	Rejected  int `json:"rejected"`
	Completed int `json:"completed"`
}

// Statistics is the dashboard summary.
type Statistics struct {
	TotalOrders int         `json:"totalOrders"`
	ByStatus    OrderCounts `json:"byStatus"`
	TotalUsers  int         `json:"totalUsers"`
	Clients     int         `json:"clients"`
	Specialists int         `json:"specialists"`
}
