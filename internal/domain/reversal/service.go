package reversal

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Actor identifies who is asking for the reversal. Privileged actors
// (managers) may reverse any transaction at any time; sellers may only
// reverse their own recent transactions.
type Actor struct {
	Mobile     string
	Privileged bool
}

type Service struct {
	repo            Repository
	notifier        Notifier
	ownershipWindow time.Duration
}

func NewService(repo Repository, notifier Notifier, ownershipWindow time.Duration) *Service {
	return &Service{
		repo:            repo,
		notifier:        notifier,
		ownershipWindow: ownershipWindow,
	}
}

// CheckPermission decides whether the actor may reverse the given
// transaction. Sellers must be the recording admin and inside the
// ownership window; an expired window is reported to the notifier.
func (s *Service) CheckPermission(ctx context.Context, actor Actor, info *TransactionInfo) Decision {
	if actor.Privileged {
		return Decision{Allowed: true}
	}
	if info.AdminMobile != actor.Mobile {
		return Decision{Allowed: false, Reason: ReasonNotOwner}
	}
	if time.Since(info.CreatedAt) > s.ownershipWindow {
		s.notifier.PermissionDenied(ctx, AuditEvent{
			ActorMobile:     actor.Mobile,
			Kind:            info.Kind,
			TransactionID:   info.ID,
			Amount:          info.Amount,
			TransactionDate: info.CreatedAt,
			Reason:          ReasonTimeExpired,
		})
		return Decision{Allowed: false, Reason: ReasonTimeExpired}
	}
	return Decision{Allowed: true}
}

// Reverse soft-deletes the transaction after a permission check. A
// purchase reversal also compensates the subscriber's balance; a usage
// reversal only hides the record.
func (s *Service) Reverse(ctx context.Context, actor Actor, kind Kind, id int64) (*TransactionInfo, error) {
	switch kind {
	case KindPurchase, KindCreditUsage:
	default:
		return nil, ErrUnknownKind
	}

	info, err := s.repo.GetTransaction(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	if decision := s.CheckPermission(ctx, actor, info); !decision.Allowed {
		log.Warn().
			Str("actor_mobile", actor.Mobile).
			Str("kind", string(kind)).
			Int64("transaction_id", id).
			Str("reason", decision.Reason).
			Msg("Reversal denied")
		return nil, ErrPermissionDenied
	}

	switch kind {
	case KindPurchase:
		compensation, err := s.repo.ReversePurchase(ctx, id)
		if err != nil {
			return nil, err
		}
		log.Info().
			Str("actor_mobile", actor.Mobile).
			Int64("purchase_id", id).
			Float64("compensation", compensation).
			Msg("Purchase reversed")
	case KindCreditUsage:
		if err := s.repo.ReverseUsage(ctx, id); err != nil {
			return nil, err
		}
		log.Info().
			Str("actor_mobile", actor.Mobile).
			Int64("credit_usage_id", id).
			Msg("Credit usage reversed")
	}

	return info, nil
}
