package pending

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const queryTimeout = 5 * time.Second

type Repository interface {
	Create(ctx context.Context, p CreateParams) error
	SelectMatured(ctx context.Context, subscriberID *int64, before time.Time) ([]PendingCredit, error)
	SettleOne(ctx context.Context, id int64) (*SettledEntry, error)
	OutstandingBySubscriber(ctx context.Context, subscriberID int64) (Outstanding, error)
	DeleteTransferredBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountStaleUnsettled(ctx context.Context, cutoff time.Time) (int64, error)
}

// PendingRepository owns the pending_credits table and the settlement
// write path into subscribers.credit.
type PendingRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *PendingRepository {
	return &PendingRepository{db: db}
}

// Create inserts a pending entry with transferred=0. A violation of the
// (purchase_id, subscriber_id) uniqueness constraint is reported as
// ErrDuplicateEntry so the caller can treat a resubmitted purchase as a
// no-op instead of a failure. No balance is touched here.
func (r *PendingRepository) Create(ctx context.Context, p CreateParams) error {
	if p.CreditAmount <= 0 {
		return ErrInvalidAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO pending_credits (
			subscriber_id, mobile, purchase_id, credit_amount,
			branch_id, sales_center_id, admin_mobile
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.SubscriberID, p.Mobile, p.PurchaseID, p.CreditAmount,
		p.BranchID, p.SalesCenterID, p.AdminMobile)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateEntry
		}
		return fmt.Errorf("%w: insert pending credit", ErrInternal)
	}
	return nil
}

// SelectMatured returns untransferred, active entries created at or
// before the maturity cutoff, oldest first.
func (r *PendingRepository) SelectMatured(ctx context.Context, subscriberID *int64, before time.Time) ([]PendingCredit, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT id, subscriber_id, mobile, purchase_id, credit_amount,
		       branch_id, sales_center_id, admin_mobile, active,
		       transferred, transferred_at, created_at
		FROM pending_credits
		WHERE transferred = 0 AND active = 1 AND created_at <= $1`
	args := []interface{}{before}
	if subscriberID != nil {
		query += ` AND subscriber_id = $2`
		args = append(args, *subscriberID)
	}
	query += ` ORDER BY created_at ASC`

	entries := make([]PendingCredit, 0)
	if err := r.db.SelectContext(ctx2, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("%w: select matured", ErrInternal)
	}
	return entries, nil
}

// SettleOne moves a single pending entry into the spendable balance in
// one transaction. The row is locked and re-checked: a concurrent pass
// that already claimed it makes this call a no-op (nil, nil), not an
// error. The transferred flag is flipped before the balance add, so an
// interruption between the two can only under-credit, never
// double-credit.
func (r *PendingRepository) SettleOne(ctx context.Context, id int64) (*SettledEntry, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	var row PendingCredit
	err = tx.GetContext(ctx2, &row, `
		SELECT id, subscriber_id, mobile, credit_amount, transferred
		FROM pending_credits
		WHERE id = $1 AND active = 1
		FOR UPDATE
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: lock pending row", ErrInternal)
	}

	if row.Transferred != 0 {
		return nil, nil
	}

	if _, err := tx.ExecContext(ctx2, `
		UPDATE pending_credits
		SET transferred = 1, transferred_at = now()
		WHERE id = $1
	`, id); err != nil {
		return nil, fmt.Errorf("%w: mark transferred", ErrInternal)
	}

	result, err := tx.ExecContext(ctx2, `
		UPDATE subscribers
		SET credit = credit + $2, updated_at = now()
		WHERE id = $1
	`, row.SubscriberID, row.CreditAmount)
	if err != nil {
		return nil, fmt.Errorf("%w: add credit", ErrInternal)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return nil, ErrSubscriberNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return &SettledEntry{
		PendingID:    row.ID,
		SubscriberID: row.SubscriberID,
		Mobile:       row.Mobile,
		Amount:       row.CreditAmount,
	}, nil
}

func (r *PendingRepository) OutstandingBySubscriber(ctx context.Context, subscriberID int64) (Outstanding, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	entries := make([]PendingCredit, 0)
	err := r.db.SelectContext(ctx2, &entries, `
		SELECT id, subscriber_id, mobile, purchase_id, credit_amount,
		       branch_id, sales_center_id, admin_mobile, active,
		       transferred, transferred_at, created_at
		FROM pending_credits
		WHERE subscriber_id = $1 AND transferred = 0 AND active = 1
		ORDER BY created_at ASC
	`, subscriberID)
	if err != nil {
		return Outstanding{}, fmt.Errorf("%w: select outstanding", ErrInternal)
	}

	out := Outstanding{Entries: entries}
	for _, e := range entries {
		out.Total += e.CreditAmount
	}
	out.Total = round1(out.Total)
	return out, nil
}

// DeleteTransferredBefore physically removes settled rows past the
// retention window.
func (r *PendingRepository) DeleteTransferredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `
		DELETE FROM pending_credits
		WHERE transferred = 1 AND transferred_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: delete settled rows", ErrInternal)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

// CountStaleUnsettled counts active entries that should long have been
// settled; non-zero means the settlement job has not been running.
func (r *PendingRepository) CountStaleUnsettled(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var count int64
	err := r.db.GetContext(ctx2, &count, `
		SELECT COUNT(*)
		FROM pending_credits
		WHERE transferred = 0 AND active = 1 AND created_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: count stale rows", ErrInternal)
	}
	return count, nil
}
