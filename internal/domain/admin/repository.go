package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const queryTimeout = 3 * time.Second

type Repository interface {
	GetByMobile(ctx context.Context, mobile string) (*Admin, error)
	Create(ctx context.Context, a *Admin) error
	List(ctx context.Context) ([]Admin, error)
}

type AdminRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// GetByMobile returns nil, nil when no account exists.
func (r *AdminRepository) GetByMobile(ctx context.Context, mobile string) (*Admin, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var a Admin
	err := r.db.GetContext(ctx2, &a, `
		SELECT id, mobile, name, password_hash, role, branch_id, created_at
		FROM admins
		WHERE mobile = $1
	`, mobile)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get admin by mobile", ErrInternal)
	}
	return &a, nil
}

func (r *AdminRepository) Create(ctx context.Context, a *Admin) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.QueryRowxContext(ctx2, `
		INSERT INTO admins (mobile, name, password_hash, role, branch_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, a.Mobile, a.Name, a.PasswordHash, a.Role, a.BranchID).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrMobileExists
		}
		return fmt.Errorf("%w: create admin", ErrInternal)
	}
	return nil
}

func (r *AdminRepository) List(ctx context.Context) ([]Admin, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	admins := []Admin{}
	err := r.db.SelectContext(ctx2, &admins, `
		SELECT id, mobile, name, password_hash, role, branch_id, created_at
		FROM admins
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: list admins", ErrInternal)
	}
	return admins, nil
}
