package redemption

import (
	"context"
	"errors"
	"testing"
)

type repoStub struct {
	usage    *CreditUsage
	spendErr error
	spends   int
}

func (r *repoStub) Spend(context.Context, string, float64, string) (*CreditUsage, error) {
	r.spends++
	if r.spendErr != nil {
		return nil, r.spendErr
	}
	return r.usage, nil
}

func (r *repoStub) List(context.Context, string, int, int) ([]CreditUsage, error) {
	return nil, nil
}

func TestSpendSettlesBeforeDebit(t *testing.T) {
	repo := &repoStub{usage: &CreditUsage{ID: 1, Mobile: "09123456789", Amount: 3.5}}
	settled := 0
	svc := NewService(repo, func(context.Context, string) error {
		settled++
		return nil
	})

	usage, err := svc.Spend(context.Background(), "09123456789", 3.5, "09120000001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usage.Amount != 3.5 {
		t.Fatalf("unexpected usage: %+v", usage)
	}
	if settled != 1 {
		t.Fatalf("expected one settlement pass, got %d", settled)
	}
}

func TestSpendProceedsWhenSettlementFails(t *testing.T) {
	repo := &repoStub{usage: &CreditUsage{ID: 1, Amount: 1.0}}
	svc := NewService(repo, func(context.Context, string) error {
		return errors.New("db down")
	})

	_, err := svc.Spend(context.Background(), "09123456789", 1.0, "09120000001")
	if err != nil {
		t.Fatalf("settlement failure must not block the spend, got %v", err)
	}
	if repo.spends != 1 {
		t.Fatalf("expected one spend attempt, got %d", repo.spends)
	}
}

func TestSpendRejectsNonPositiveAmount(t *testing.T) {
	repo := &repoStub{}
	svc := NewService(repo, nil)

	for _, amount := range []float64{0, -2.5} {
		_, err := svc.Spend(context.Background(), "09123456789", amount, "09120000001")
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %v: expected ErrInvalidAmount, got %v", amount, err)
		}
		if repo.spends != 0 {
			t.Fatal("invalid amount must not reach the repository")
		}
	}
}

func TestSpendPropagatesInsufficientCredit(t *testing.T) {
	repo := &repoStub{spendErr: ErrInsufficientCredit}
	svc := NewService(repo, nil)

	_, err := svc.Spend(context.Background(), "09123456789", 100, "09120000001")
	if !errors.Is(err, ErrInsufficientCredit) {
		t.Fatalf("expected ErrInsufficientCredit, got %v", err)
	}
}
