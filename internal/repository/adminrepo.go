// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/fixoo-app/fixoo/internal/model"
)

// AdminRepository provides CRUD access for dashboard operators.
type AdminRepository interface {
	// Create inserts a new admin. A taken username yields errs.ErrAlreadyExists.
	Create(ctx context.Context, a *model.Admin) error
	// GetByID loads an admin by ID.
	GetByID(ctx context.Context, id string) (*model.Admin, error)
	// GetByUsername loads an admin by username.
	GetByUsername(ctx context.Context, username string) (*model.Admin, error)
	// List returns all admins ordered by creation time.
	List(ctx context.Context) ([]model.Admin, error)
	// Delete removes an admin.
	Delete(ctx context.Context, id string) error
	// Count returns the number of admins.
	Count(ctx context.Context) (int, error)
}
