package redemption

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

type Repository interface {
	Spend(ctx context.Context, mobile string, amount float64, adminMobile string) (*CreditUsage, error)
	List(ctx context.Context, mobile string, limit, offset int) ([]CreditUsage, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Spend debits the subscriber's balance and records the usage in one
// transaction. The subscriber row is locked and re-read so a concurrent
// settlement or spend cannot cause a lost update.
func (r *repository) Spend(ctx context.Context, mobile string, amount float64, adminMobile string) (*CreditUsage, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	var sub struct {
		ID     int64   `db:"id"`
		Credit float64 `db:"credit"`
	}
	err = tx.GetContext(ctx2, &sub, `
		SELECT id, credit FROM subscribers WHERE mobile = $1 FOR UPDATE
	`, mobile)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubscriberNotFound
		}
		return nil, fmt.Errorf("%w: lock subscriber row", ErrInternal)
	}

	if sub.Credit < amount {
		return nil, ErrInsufficientCredit
	}

	if _, err := tx.ExecContext(ctx2, `
		UPDATE subscribers SET credit = credit - $2, updated_at = now() WHERE id = $1
	`, sub.ID, amount); err != nil {
		return nil, fmt.Errorf("%w: deduct credit", ErrInternal)
	}

	var usage CreditUsage
	err = tx.GetContext(ctx2, &usage, `
		INSERT INTO credit_usages (subscriber_id, mobile, amount, admin_mobile)
		VALUES ($1, $2, $3, $4)
		RETURNING id, subscriber_id, mobile, amount, admin_mobile, active, created_at
	`, sub.ID, mobile, amount, adminMobile)
	if err != nil {
		return nil, fmt.Errorf("%w: insert credit usage", ErrInternal)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx", ErrInternal)
	}
	return &usage, nil
}

func (r *repository) List(ctx context.Context, mobile string, limit, offset int) ([]CreditUsage, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, subscriber_id, mobile, amount, admin_mobile, active, created_at
		FROM credit_usages
		WHERE active = 1`
	args := make([]interface{}, 0, 3)
	idx := 1
	if mobile != "" {
		query += fmt.Sprintf(" AND mobile = $%d", idx)
		args = append(args, mobile)
		idx++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	usages := make([]CreditUsage, 0)
	if err := r.db.SelectContext(ctx2, &usages, query, args...); err != nil {
		return nil, fmt.Errorf("%w: list credit usages", ErrInternal)
	}
	return usages, nil
}
