package purchase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bonuslab/loyalty-api/internal/config"
	"github.com/bonuslab/loyalty-api/internal/domain/pending"
)

type repoStub struct {
	created []*Purchase
	nextID  int64
}

func (r *repoStub) Create(_ context.Context, p *Purchase) error {
	r.nextID++
	p.ID = r.nextID
	r.created = append(r.created, p)
	return nil
}

func (r *repoStub) GetByID(context.Context, int64) (*Purchase, error) { return nil, nil }
func (r *repoStub) List(context.Context, ListFilter) ([]Purchase, error) {
	return nil, nil
}

type resolverStub struct {
	id         int64
	registered bool
}

func (s *resolverStub) IDByMobile(context.Context, string) (int64, bool, error) {
	return s.id, s.registered, nil
}

type pendingStub struct {
	params []pending.CreateParams
	err    error
}

func (s *pendingStub) Create(_ context.Context, p pending.CreateParams) error {
	if s.err != nil {
		return s.err
	}
	s.params = append(s.params, p)
	return nil
}

func testBranches(t *testing.T) *config.Branches {
	t.Helper()
	path := filepath.Join(t.TempDir(), "branches.json")
	data := `[{"id": 1, "name": "Central", "sales_centers": [{"id": 11, "name": "Till 1"}]}]`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	branches, err := config.LoadBranches(path)
	if err != nil {
		t.Fatal(err)
	}
	return branches
}

func newTestService(t *testing.T, repo *repoStub, resolver *resolverStub, pendings *pendingStub) *Service {
	t.Helper()
	return NewService(repo, resolver, pendings, testBranches(t), 100000)
}

func TestCreditValueRounding(t *testing.T) {
	cases := []struct {
		amount int64
		want   float64
	}{
		{100000, 1.0},
		{50000, 0.5},
		{149999, 1.5},
		{25000, 0.3},
		{24999, 0.2},
		{1000000, 10.0},
		{100, 0.0},
	}
	for _, c := range cases {
		if got := CreditValue(c.amount, 100000); got != c.want {
			t.Errorf("CreditValue(%d) = %v, want %v", c.amount, got, c.want)
		}
	}
}

func TestRecordRegisteredSubscriberEarnsPendingCredit(t *testing.T) {
	repo := &repoStub{}
	pendings := &pendingStub{}
	svc := newTestService(t, repo, &resolverStub{id: 42, registered: true}, pendings)

	branchID, salesCenterID := 1, 11
	p, err := svc.Record(context.Background(), RecordParams{
		Mobile:        "09123456789",
		Amount:        100000,
		BranchID:      &branchID,
		SalesCenterID: &salesCenterID,
		AdminMobile:   "09120000001",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !p.SubscriberID.Valid || p.SubscriberID.Int64 != 42 {
		t.Fatalf("purchase not linked to subscriber: %+v", p.SubscriberID)
	}
	if len(pendings.params) != 1 {
		t.Fatalf("expected one pending entry, got %d", len(pendings.params))
	}
	entry := pendings.params[0]
	if entry.CreditAmount != 1.0 {
		t.Fatalf("expected credit 1.0, got %v", entry.CreditAmount)
	}
	if entry.PurchaseID == nil || *entry.PurchaseID != p.ID {
		t.Fatal("pending entry must reference the purchase")
	}
}

func TestRecordUnregisteredMobileEarnsNothing(t *testing.T) {
	repo := &repoStub{}
	pendings := &pendingStub{}
	svc := newTestService(t, repo, &resolverStub{}, pendings)

	p, err := svc.Record(context.Background(), RecordParams{
		Mobile:      "09123456789",
		Amount:      100000,
		AdminMobile: "09120000001",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.SubscriberID.Valid {
		t.Fatal("unregistered sale must not link a subscriber")
	}
	if len(pendings.params) != 0 {
		t.Fatal("unregistered sale must not earn pending credit")
	}
	if len(repo.created) != 1 {
		t.Fatal("sale itself must still be recorded")
	}
}

func TestRecordRejectsUnknownBranch(t *testing.T) {
	svc := newTestService(t, &repoStub{}, &resolverStub{}, &pendingStub{})

	branchID := 99
	_, err := svc.Record(context.Background(), RecordParams{
		Mobile:   "09123456789",
		Amount:   1000,
		BranchID: &branchID,
	})
	if !errors.Is(err, ErrUnknownBranch) {
		t.Fatalf("expected ErrUnknownBranch, got %v", err)
	}
}

func TestRecordRejectsUnknownSalesCenter(t *testing.T) {
	svc := newTestService(t, &repoStub{}, &resolverStub{}, &pendingStub{})

	branchID, salesCenterID := 1, 99
	_, err := svc.Record(context.Background(), RecordParams{
		Mobile:        "09123456789",
		Amount:        1000,
		BranchID:      &branchID,
		SalesCenterID: &salesCenterID,
	})
	if !errors.Is(err, ErrUnknownBranch) {
		t.Fatalf("expected ErrUnknownBranch, got %v", err)
	}
}

func TestRecordRejectsBadInput(t *testing.T) {
	svc := newTestService(t, &repoStub{}, &resolverStub{}, &pendingStub{})

	if _, err := svc.Record(context.Background(), RecordParams{Mobile: "09123456789", Amount: 0}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.Record(context.Background(), RecordParams{Mobile: "12345", Amount: 1000}); !errors.Is(err, ErrInvalidMobile) {
		t.Fatalf("expected ErrInvalidMobile, got %v", err)
	}
}

func TestRecordSurvivesPendingFailure(t *testing.T) {
	repo := &repoStub{}
	pendings := &pendingStub{err: errors.New("db down")}
	svc := newTestService(t, repo, &resolverStub{id: 42, registered: true}, pendings)

	p, err := svc.Record(context.Background(), RecordParams{
		Mobile: "09123456789",
		Amount: 100000,
	})
	if err != nil {
		t.Fatalf("sale must not fail when pending credit write fails, got %v", err)
	}
	if p == nil || len(repo.created) != 1 {
		t.Fatal("sale must still be recorded")
	}
}
