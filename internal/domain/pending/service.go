package pending

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog/log"
)

// SubscriberSource resolves subscribers for balance composition without
// importing the subscriber domain.
type SubscriberSource interface {
	CreditByID(ctx context.Context, id int64) (float64, error)
	IDByMobile(ctx context.Context, mobile string) (int64, error)
}

// Service is the pending credit manager: it records earned credit,
// settles matured entries exactly once each, and composes balances.
type Service struct {
	repo        Repository
	subscribers SubscriberSource
	maturity    time.Duration
	pointValue  int64
}

func NewService(repo Repository, subscribers SubscriberSource, maturity time.Duration, pointValue int64) *Service {
	return &Service{
		repo:        repo,
		subscribers: subscribers,
		maturity:    maturity,
		pointValue:  pointValue,
	}
}

// Create records earned credit as a pending entry. A duplicate
// submission for the same (purchase, subscriber) pair is success: the
// first entry stands and no second one is created.
func (s *Service) Create(ctx context.Context, p CreateParams) error {
	if p.CreditAmount <= 0 {
		return ErrInvalidAmount
	}

	err := s.repo.Create(ctx, p)
	if errors.Is(err, ErrDuplicateEntry) {
		log.Debug().
			Int64("subscriber_id", p.SubscriberID).
			Interface("purchase_id", p.PurchaseID).
			Msg("pending credit already recorded, skipping")
		return nil
	}
	return err
}

// SettleMatured settles every matured entry, optionally restricted to
// one subscriber. Each row is settled in its own transaction; rows
// claimed by a concurrent pass are skipped. A storage error aborts the
// pass and is returned along with what was settled so far.
func (s *Service) SettleMatured(ctx context.Context, subscriberID *int64) (Result, error) {
	cutoff := time.Now().Add(-s.maturity)

	matured, err := s.repo.SelectMatured(ctx, subscriberID, cutoff)
	if err != nil {
		return Result{}, err
	}

	result := Result{Details: make([]SettledEntry, 0, len(matured))}
	for _, row := range matured {
		entry, err := s.repo.SettleOne(ctx, row.ID)
		if err != nil {
			log.Error().Err(err).
				Int64("pending_id", row.ID).
				Int64("subscriber_id", row.SubscriberID).
				Msg("settlement failed")
			return result, err
		}
		if entry == nil {
			// Claimed by a concurrent pass, or deactivated meanwhile.
			continue
		}
		result.Count++
		result.Amount = round1(result.Amount + entry.Amount)
		result.Details = append(result.Details, *entry)

		log.Info().
			Int64("pending_id", entry.PendingID).
			Int64("subscriber_id", entry.SubscriberID).
			Float64("amount", entry.Amount).
			Msg("pending credit settled")
	}

	return result, nil
}

// OutstandingFor returns unsettled pending credit for a subscriber
// after a fresh settlement pass, so matured-but-unsettled credit is
// never reported as pending. Reads fail open: a settlement error is
// logged and the read proceeds.
func (s *Service) OutstandingFor(ctx context.Context, subscriberID int64) (Outstanding, error) {
	if _, err := s.SettleMatured(ctx, &subscriberID); err != nil {
		log.Error().Err(err).Int64("subscriber_id", subscriberID).Msg("settlement pass before outstanding read failed")
	}
	return s.repo.OutstandingBySubscriber(ctx, subscriberID)
}

// OutstandingByMobile resolves the subscriber and delegates to
// OutstandingFor.
func (s *Service) OutstandingByMobile(ctx context.Context, mobile string) (Outstanding, error) {
	id, err := s.subscribers.IDByMobile(ctx, mobile)
	if err != nil {
		return Outstanding{}, err
	}
	return s.OutstandingFor(ctx, id)
}

// CombinedBalance returns available, pending and combined credit, also
// expressed in currency units via the fixed point value.
func (s *Service) CombinedBalance(ctx context.Context, subscriberID int64) (Balance, error) {
	outstanding, err := s.OutstandingFor(ctx, subscriberID)
	if err != nil {
		return Balance{}, err
	}

	available, err := s.subscribers.CreditByID(ctx, subscriberID)
	if err != nil {
		return Balance{}, err
	}

	// Float sums of one-decimal values drift (0.1+0.7 = 0.799...), so
	// the total is re-rounded and currency conversion rounds rather
	// than truncates.
	pendingTotal := round1(outstanding.Total)
	total := round1(available + pendingTotal)
	return Balance{
		Available:         available,
		Pending:           pendingTotal,
		Total:             total,
		AvailableCurrency: s.currency(available),
		PendingCurrency:   s.currency(pendingTotal),
		TotalCurrency:     s.currency(total),
	}, nil
}

// currency converts credit points into currency units at the fixed
// point value.
func (s *Service) currency(points float64) int64 {
	return int64(math.Round(points * float64(s.pointValue)))
}

// CombinedBalanceByMobile resolves the subscriber and delegates to
// CombinedBalance.
func (s *Service) CombinedBalanceByMobile(ctx context.Context, mobile string) (Balance, error) {
	id, err := s.subscribers.IDByMobile(ctx, mobile)
	if err != nil {
		return Balance{}, err
	}
	return s.CombinedBalance(ctx, id)
}

// PruneTransferred deletes settled entries older than cutoff and
// returns how many were removed.
func (s *Service) PruneTransferred(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.repo.DeleteTransferredBefore(ctx, cutoff)
}

// CountStale reports unsettled entries created before cutoff. A
// non-zero count means settlement has not been keeping up.
func (s *Service) CountStale(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.repo.CountStaleUnsettled(ctx, cutoff)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
