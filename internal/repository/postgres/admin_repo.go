package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/fixoo-app/fixoo/internal/errs"
	"github.com/fixoo-app/fixoo/internal/model"
)

// AdminRepo implements repository.AdminRepository using PostgreSQL.
type AdminRepo struct{ db *DB }

// NewAdminRepo constructs an admin repository.
func NewAdminRepo(db *DB) *AdminRepo { return &AdminRepo{db: db} }

const adminColumns = `id, username, role, pwd_hash, salt, created_at`

// Create inserts a new admin row.
func (r *AdminRepo) Create(ctx context.Context, a *model.Admin) error {
	const q = `
INSERT INTO admins (id, username, role, pwd_hash, salt)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Pool.Exec(ctx, q, a.ID, a.Username, a.Role, a.PwdHash, a.Salt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects an admin by ID.
func (r *AdminRepo) GetByID(ctx context.Context, id string) (*model.Admin, error) {
	const q = `SELECT ` + adminColumns + ` FROM admins WHERE id=$1`
	return scanAdmin(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByUsername selects an admin by username.
func (r *AdminRepo) GetByUsername(ctx context.Context, username string) (*model.Admin, error) {
	const q = `SELECT ` + adminColumns + ` FROM admins WHERE username=$1`
	return scanAdmin(r.db.Pool.QueryRow(ctx, q, username))
}

// List returns every admin, oldest first.
func (r *AdminRepo) List(ctx context.Context) ([]model.Admin, error) {
	const q = `SELECT ` + adminColumns + ` FROM admins ORDER BY created_at, username`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Admin{}
	for rows.Next() {
		var a model.Admin
		if err := rows.Scan(&a.ID, &a.Username, &a.Role, &a.PwdHash, &a.Salt, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Delete removes an admin row.
func (r *AdminRepo) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM admins WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Count returns the number of admin rows.
func (r *AdminRepo) Count(ctx context.Context) (int, error) {
	const q = `SELECT count(*) FROM admins`
	var n int
	if err := r.db.Pool.QueryRow(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanAdmin(row pgx.Row) (*model.Admin, error) {
	var a model.Admin
	if err := row.Scan(&a.ID, &a.Username, &a.Role, &a.PwdHash, &a.Salt, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
