package purchase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

// ListFilter narrows the admin transaction list.
type ListFilter struct {
	Mobile   string
	BranchID *int
	Limit    int
	Offset   int
}

type Repository interface {
	Create(ctx context.Context, p *Purchase) error
	GetByID(ctx context.Context, id int64) (*Purchase, error)
	List(ctx context.Context, filter ListFilter) ([]Purchase, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Purchase) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.db.GetContext(ctx2, p, `
		INSERT INTO purchases (
			subscriber_id, mobile, amount, branch_id, sales_center_id, admin_mobile
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, subscriber_id, mobile, amount, branch_id,
		          sales_center_id, admin_mobile, active, created_at
	`, p.SubscriberID, p.Mobile, p.Amount, p.BranchID, p.SalesCenterID, p.AdminMobile)
	if err != nil {
		return fmt.Errorf("%w: insert purchase", ErrInternal)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Purchase, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p Purchase
	err := r.db.GetContext(ctx2, &p, `
		SELECT id, subscriber_id, mobile, amount, branch_id,
		       sales_center_id, admin_mobile, active, created_at
		FROM purchases
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get purchase", ErrInternal)
	}
	return &p, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Purchase, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT id, subscriber_id, mobile, amount, branch_id,
		       sales_center_id, admin_mobile, active, created_at
		FROM purchases
		WHERE active = 1`
	args := make([]interface{}, 0, 4)
	idx := 1

	if filter.Mobile != "" {
		query += fmt.Sprintf(" AND mobile = $%d", idx)
		args = append(args, filter.Mobile)
		idx++
	}
	if filter.BranchID != nil {
		query += fmt.Sprintf(" AND branch_id = $%d", idx)
		args = append(args, *filter.BranchID)
		idx++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, filter.Offset)

	purchases := make([]Purchase, 0)
	if err := r.db.SelectContext(ctx2, &purchases, query, args...); err != nil {
		return nil, fmt.Errorf("%w: list purchases", ErrInternal)
	}
	return purchases, nil
}
