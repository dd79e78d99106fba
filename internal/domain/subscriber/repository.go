package subscriber

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

// Repository defines subscriber data access
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Subscriber, error)
	GetByMobile(ctx context.Context, mobile string) (*Subscriber, error)
	UpsertVerified(ctx context.Context, mobile string) (*Subscriber, error)
	UpdateName(ctx context.Context, id int64, name string) error
	CreditByID(ctx context.Context, id int64) (float64, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates subscriber repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Subscriber, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var sub Subscriber
	err := r.db.GetContext(ctx2, &sub, `
		SELECT id, mobile, name, credit, verified, branch_id, created_at, updated_at
		FROM subscribers
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get subscriber", ErrInternal)
	}
	return &sub, nil
}

func (r *repository) GetByMobile(ctx context.Context, mobile string) (*Subscriber, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var sub Subscriber
	err := r.db.GetContext(ctx2, &sub, `
		SELECT id, mobile, name, credit, verified, branch_id, created_at, updated_at
		FROM subscribers
		WHERE mobile = $1
	`, mobile)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get subscriber by mobile", ErrInternal)
	}
	return &sub, nil
}

// UpsertVerified registers a subscriber on first OTP verification, or
// marks an existing one verified. The credit balance is untouched.
func (r *repository) UpsertVerified(ctx context.Context, mobile string) (*Subscriber, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var sub Subscriber
	err := r.db.GetContext(ctx2, &sub, `
		INSERT INTO subscribers (mobile, verified)
		VALUES ($1, TRUE)
		ON CONFLICT (mobile) DO UPDATE SET verified = TRUE, updated_at = now()
		RETURNING id, mobile, name, credit, verified, branch_id, created_at, updated_at
	`, mobile)
	if err != nil {
		return nil, fmt.Errorf("%w: upsert subscriber", ErrInternal)
	}
	return &sub, nil
}

func (r *repository) UpdateName(ctx context.Context, id int64, name string) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `
		UPDATE subscribers SET name = $2, updated_at = now() WHERE id = $1
	`, id, name)
	if err != nil {
		return fmt.Errorf("%w: update subscriber name", ErrInternal)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) CreditByID(ctx context.Context, id int64) (float64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var credit float64
	err := r.db.GetContext(ctx2, &credit, `SELECT credit FROM subscribers WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: get credit", ErrInternal)
	}
	return credit, nil
}
