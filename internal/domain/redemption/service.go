package redemption

import (
	"context"

	"github.com/rs/zerolog/log"
)

// SettleFunc runs a settlement pass for one subscriber so matured
// credit is spendable before the balance check; wired to the pending
// credit manager.
type SettleFunc func(ctx context.Context, mobile string) error

type Service struct {
	repo   Repository
	settle SettleFunc
}

func NewService(repo Repository, settle SettleFunc) *Service {
	return &Service{repo: repo, settle: settle}
}

// Spend settles any matured credit for the subscriber, then debits the
// balance and records the usage atomically. Settlement failure does not
// block the spend; the balance check simply sees the pre-settlement
// value.
func (s *Service) Spend(ctx context.Context, mobile string, amount float64, adminMobile string) (*CreditUsage, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	if s.settle != nil {
		if err := s.settle(ctx, mobile); err != nil {
			log.Error().Err(err).Str("mobile", mobile).Msg("settlement pass before spend failed")
		}
	}

	usage, err := s.repo.Spend(ctx, mobile, amount, adminMobile)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("usage_id", usage.ID).
		Str("mobile", mobile).
		Float64("amount", amount).
		Str("admin", adminMobile).
		Msg("credit spent")
	return usage, nil
}

func (s *Service) List(ctx context.Context, mobile string, limit, offset int) ([]CreditUsage, error) {
	return s.repo.List(ctx, mobile, limit, offset)
}
