package purchase

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog/log"

	"github.com/bonuslab/loyalty-api/internal/config"
	"github.com/bonuslab/loyalty-api/internal/domain/pending"
	"github.com/bonuslab/loyalty-api/internal/pkg/validator"
)

// SubscriberResolver looks up a subscriber by mobile. A sale for an
// unregistered mobile is still recorded, it just earns no credit.
type SubscriberResolver interface {
	IDByMobile(ctx context.Context, mobile string) (int64, bool, error)
}

// PendingCreator records earned credit; implemented by the pending
// credit manager.
type PendingCreator interface {
	Create(ctx context.Context, p pending.CreateParams) error
}

// RecordParams describes a sale rung up at a branch.
type RecordParams struct {
	Mobile        string
	Amount        int64
	BranchID      *int
	SalesCenterID *int
	AdminMobile   string
}

type Service struct {
	repo        Repository
	subscribers SubscriberResolver
	pendings    PendingCreator
	branches    *config.Branches
	earnDivisor int64
}

func NewService(repo Repository, subscribers SubscriberResolver, pendings PendingCreator, branches *config.Branches, earnDivisor int64) *Service {
	return &Service{
		repo:        repo,
		subscribers: subscribers,
		pendings:    pendings,
		branches:    branches,
		earnDivisor: earnDivisor,
	}
}

// Record persists the purchase and, for a registered subscriber, a
// pending credit entry tied to it. Resubmitting the same purchase
// cannot produce a second pending entry.
func (s *Service) Record(ctx context.Context, p RecordParams) (*Purchase, error) {
	if p.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !validator.IsMobile(p.Mobile) {
		return nil, ErrInvalidMobile
	}
	if p.BranchID != nil {
		if _, ok := s.branches.Get(*p.BranchID); !ok {
			return nil, ErrUnknownBranch
		}
		if p.SalesCenterID != nil && !s.branches.HasSalesCenter(*p.BranchID, *p.SalesCenterID) {
			return nil, ErrUnknownBranch
		}
	}

	subscriberID, registered, err := s.subscribers.IDByMobile(ctx, p.Mobile)
	if err != nil {
		return nil, err
	}

	row := &Purchase{
		Mobile:      p.Mobile,
		Amount:      p.Amount,
		AdminMobile: p.AdminMobile,
	}
	if registered {
		row.SubscriberID = sql.NullInt64{Int64: subscriberID, Valid: true}
	}
	if p.BranchID != nil {
		row.BranchID = sql.NullInt64{Int64: int64(*p.BranchID), Valid: true}
	}
	if p.SalesCenterID != nil {
		row.SalesCenterID = sql.NullInt64{Int64: int64(*p.SalesCenterID), Valid: true}
	}

	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}

	credit := CreditValue(p.Amount, s.earnDivisor)
	if registered && credit > 0 {
		purchaseID := row.ID
		err := s.pendings.Create(ctx, pending.CreateParams{
			SubscriberID:  subscriberID,
			Mobile:        p.Mobile,
			PurchaseID:    &purchaseID,
			CreditAmount:  credit,
			BranchID:      p.BranchID,
			SalesCenterID: p.SalesCenterID,
			AdminMobile:   p.AdminMobile,
		})
		if err != nil {
			// The sale is recorded; missing credit shows up in
			// reconciliation rather than failing the sale.
			log.Error().Err(err).
				Int64("purchase_id", row.ID).
				Int64("subscriber_id", subscriberID).
				Msg("failed to record pending credit for purchase")
		}
	}

	log.Info().
		Int64("purchase_id", row.ID).
		Str("mobile", p.Mobile).
		Int64("amount", p.Amount).
		Float64("credit", credit).
		Bool("registered", registered).
		Msg("purchase recorded")

	return row, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Purchase, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Purchase, error) {
	return s.repo.List(ctx, filter)
}

// EarnedCredit exposes the derivation for display purposes.
func (s *Service) EarnedCredit(amount int64) float64 {
	return CreditValue(amount, s.earnDivisor)
}
