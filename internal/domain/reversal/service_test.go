package reversal

import (
	"context"
	"errors"
	"testing"
	"time"
)

type repoStub struct {
	info         *TransactionInfo
	infoErr      error
	compensation float64
	purchaseErr  error
	usageErr     error

	purchaseCalls int
	usageCalls    int
}

func (r *repoStub) GetTransaction(context.Context, Kind, int64) (*TransactionInfo, error) {
	return r.info, r.infoErr
}

func (r *repoStub) ReversePurchase(context.Context, int64) (float64, error) {
	r.purchaseCalls++
	if r.purchaseErr != nil {
		return 0, r.purchaseErr
	}
	return r.compensation, nil
}

func (r *repoStub) ReverseUsage(context.Context, int64) error {
	r.usageCalls++
	return r.usageErr
}

type notifierStub struct {
	events []AuditEvent
}

func (n *notifierStub) PermissionDenied(_ context.Context, e AuditEvent) {
	n.events = append(n.events, e)
}

func purchaseInfo(adminMobile string, age time.Duration) *TransactionInfo {
	return &TransactionInfo{
		Kind:        KindPurchase,
		ID:          10,
		AdminMobile: adminMobile,
		Amount:      100000,
		CreatedAt:   time.Now().Add(-age),
	}
}

func TestManagerReversesAnyTransaction(t *testing.T) {
	repo := &repoStub{info: purchaseInfo("09120000001", 200*time.Hour), compensation: 1.0}
	notifier := &notifierStub{}
	svc := NewService(repo, notifier, 6*time.Hour)

	_, err := svc.Reverse(context.Background(), Actor{Mobile: "09129999999", Privileged: true}, KindPurchase, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.purchaseCalls != 1 {
		t.Fatalf("expected one repository call, got %d", repo.purchaseCalls)
	}
	if len(notifier.events) != 0 {
		t.Fatal("manager reversal must not produce a denial event")
	}
}

func TestSellerReversesOwnRecentTransaction(t *testing.T) {
	repo := &repoStub{info: purchaseInfo("09120000001", 3*time.Hour), compensation: 1.0}
	svc := NewService(repo, &notifierStub{}, 6*time.Hour)

	_, err := svc.Reverse(context.Background(), Actor{Mobile: "09120000001"}, KindPurchase, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.purchaseCalls != 1 {
		t.Fatalf("expected one repository call, got %d", repo.purchaseCalls)
	}
}

func TestSellerCannotReverseOthersTransaction(t *testing.T) {
	repo := &repoStub{info: purchaseInfo("09120000001", 1*time.Hour)}
	notifier := &notifierStub{}
	svc := NewService(repo, notifier, 6*time.Hour)

	_, err := svc.Reverse(context.Background(), Actor{Mobile: "09120000002"}, KindPurchase, 10)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if repo.purchaseCalls != 0 {
		t.Fatal("denied reversal must not reach the repository")
	}
	if len(notifier.events) != 0 {
		t.Fatal("ownership mismatch is not a notifiable event")
	}
}

func TestSellerDeniedAfterOwnershipWindow(t *testing.T) {
	repo := &repoStub{info: purchaseInfo("09120000001", 7*time.Hour)}
	notifier := &notifierStub{}
	svc := NewService(repo, notifier, 6*time.Hour)

	_, err := svc.Reverse(context.Background(), Actor{Mobile: "09120000001"}, KindPurchase, 10)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if repo.purchaseCalls != 0 {
		t.Fatal("denied reversal must not reach the repository")
	}

	if len(notifier.events) != 1 {
		t.Fatalf("expected exactly one denial event, got %d", len(notifier.events))
	}
	event := notifier.events[0]
	if event.Reason != ReasonTimeExpired {
		t.Fatalf("expected reason %q, got %q", ReasonTimeExpired, event.Reason)
	}
	if event.ActorMobile != "09120000001" || event.TransactionID != 10 {
		t.Fatalf("event carries wrong actor or transaction: %+v", event)
	}
}

func TestReverseUnknownKind(t *testing.T) {
	svc := NewService(&repoStub{}, &notifierStub{}, 6*time.Hour)

	_, err := svc.Reverse(context.Background(), Actor{Privileged: true}, Kind("refund"), 10)
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestReverseAlreadyReversed(t *testing.T) {
	repo := &repoStub{
		info:        purchaseInfo("09120000001", 1*time.Hour),
		purchaseErr: ErrAlreadyReversed,
	}
	svc := NewService(repo, &notifierStub{}, 6*time.Hour)

	_, err := svc.Reverse(context.Background(), Actor{Privileged: true}, KindPurchase, 10)
	if !errors.Is(err, ErrAlreadyReversed) {
		t.Fatalf("expected ErrAlreadyReversed, got %v", err)
	}
}

func TestReverseUsageSkipsCompensation(t *testing.T) {
	repo := &repoStub{info: &TransactionInfo{
		Kind:        KindCreditUsage,
		ID:          4,
		AdminMobile: "09120000001",
		Amount:      5.5,
		CreatedAt:   time.Now().Add(-time.Hour),
	}}
	svc := NewService(repo, &notifierStub{}, 6*time.Hour)

	_, err := svc.Reverse(context.Background(), Actor{Mobile: "09120000001"}, KindCreditUsage, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.usageCalls != 1 || repo.purchaseCalls != 0 {
		t.Fatalf("expected usage path only, got usage=%d purchase=%d", repo.usageCalls, repo.purchaseCalls)
	}
}

func TestReverseNotFound(t *testing.T) {
	svc := NewService(&repoStub{infoErr: ErrNotFound}, &notifierStub{}, 6*time.Hour)

	_, err := svc.Reverse(context.Background(), Actor{Privileged: true}, KindPurchase, 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
