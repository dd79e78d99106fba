package reversal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/bonuslab/loyalty-api/internal/domain/purchase"
)

const queryTimeout = 5 * time.Second

type Repository interface {
	GetTransaction(ctx context.Context, kind Kind, id int64) (*TransactionInfo, error)
	ReversePurchase(ctx context.Context, id int64) (float64, error)
	ReverseUsage(ctx context.Context, id int64) error
}

// ReversalRepository soft-deletes transactions and applies compensating
// balance adjustments across purchases, credit_usages, pending_credits
// and subscribers.
type ReversalRepository struct {
	db          *sqlx.DB
	earnDivisor int64
}

func NewRepository(db *sqlx.DB, earnDivisor int64) *ReversalRepository {
	return &ReversalRepository{db: db, earnDivisor: earnDivisor}
}

func (r *ReversalRepository) GetTransaction(ctx context.Context, kind Kind, id int64) (*TransactionInfo, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var query string
	switch kind {
	case KindPurchase:
		query = `SELECT amount::float8 AS amount, admin_mobile, created_at FROM purchases WHERE id = $1`
	case KindCreditUsage:
		query = `SELECT amount::float8 AS amount, admin_mobile, created_at FROM credit_usages WHERE id = $1`
	default:
		return nil, ErrUnknownKind
	}

	var row struct {
		Amount      float64   `db:"amount"`
		AdminMobile string    `db:"admin_mobile"`
		CreatedAt   time.Time `db:"created_at"`
	}
	if err := r.db.GetContext(ctx2, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get transaction", ErrInternal)
	}

	return &TransactionInfo{
		Kind:        kind,
		ID:          id,
		AdminMobile: row.AdminMobile,
		Amount:      row.Amount,
		CreatedAt:   row.CreatedAt,
	}, nil
}

// ReversePurchase flips the purchase inactive and subtracts the credit
// it earned from the subscriber's balance, floored at zero, in one
// transaction. Untransferred pending entries tied to the purchase are
// deactivated so a dead purchase can never settle later. Returns the
// compensation applied.
func (r *ReversalRepository) ReversePurchase(ctx context.Context, id int64) (float64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer rollback(tx)

	var p struct {
		ID           int64         `db:"id"`
		SubscriberID sql.NullInt64 `db:"subscriber_id"`
		Mobile       string        `db:"mobile"`
		Amount       int64         `db:"amount"`
		Active       int16         `db:"active"`
	}
	err = tx.GetContext(ctx2, &p, `
		SELECT id, subscriber_id, mobile, amount, active
		FROM purchases
		WHERE id = $1
		FOR UPDATE
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: lock purchase row", ErrInternal)
	}
	if p.Active == 0 {
		return 0, ErrAlreadyReversed
	}

	// Resolve the subscriber: stored reference first, mobile lookup as
	// fallback for rows created before registration linking.
	var subscriberID int64
	haveSubscriber := false
	if p.SubscriberID.Valid {
		subscriberID = p.SubscriberID.Int64
		haveSubscriber = true
	} else {
		err = tx.GetContext(ctx2, &subscriberID, `SELECT id FROM subscribers WHERE mobile = $1`, p.Mobile)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: resolve subscriber", ErrInternal)
		}
		haveSubscriber = err == nil
	}

	compensation := 0.0
	if haveSubscriber {
		compensation = purchase.CreditValue(p.Amount, r.earnDivisor)
		if compensation > 0 {
			if _, err := tx.ExecContext(ctx2, `
				UPDATE subscribers
				SET credit = GREATEST(credit - $2, 0), updated_at = now()
				WHERE id = $1
			`, subscriberID, compensation); err != nil {
				return 0, fmt.Errorf("%w: apply compensation", ErrInternal)
			}
		}

		if _, err := tx.ExecContext(ctx2, `
			UPDATE pending_credits
			SET active = 0
			WHERE purchase_id = $1 AND transferred = 0
		`, id); err != nil {
			return 0, fmt.Errorf("%w: deactivate pending credit", ErrInternal)
		}
	}

	if _, err := tx.ExecContext(ctx2, `
		UPDATE purchases SET active = 0 WHERE id = $1
	`, id); err != nil {
		return 0, fmt.Errorf("%w: deactivate purchase", ErrInternal)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit tx", ErrInternal)
	}
	return compensation, nil
}

// ReverseUsage soft-deletes a redemption record. No balance
// compensation: a usage only ever debited.
func (r *ReversalRepository) ReverseUsage(ctx context.Context, id int64) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `
		UPDATE credit_usages SET active = 0 WHERE id = $1 AND active = 1
	`, id)
	if err != nil {
		return fmt.Errorf("%w: deactivate credit usage", ErrInternal)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		var exists bool
		if err := r.db.GetContext(ctx2, &exists, `SELECT EXISTS (SELECT 1 FROM credit_usages WHERE id = $1)`, id); err != nil {
			return fmt.Errorf("%w: check usage", ErrInternal)
		}
		if exists {
			return ErrAlreadyReversed
		}
		return ErrNotFound
	}
	return nil
}

// rollback records rollback failures instead of surfacing them; a
// committed transaction reports ErrTxDone, which is not a failure.
func rollback(tx *sqlx.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Error().Err(err).Msg("transaction rollback failed")
	}
}
