package pending

import (
	"context"
	"errors"
	"testing"
	"time"
)

type repoStub struct {
	rows       map[int64]*PendingCredit
	nextID     int64
	duplicate  bool
	settleErr  error
	settleCnt  int
	claimedIDs map[int64]bool
	credits    map[int64]float64
}

func newRepoStub() *repoStub {
	return &repoStub{
		rows:       map[int64]*PendingCredit{},
		nextID:     1,
		claimedIDs: map[int64]bool{},
		credits:    map[int64]float64{},
	}
}

func (r *repoStub) addRow(subscriberID int64, amount float64, age time.Duration) int64 {
	id := r.nextID
	r.nextID++
	r.rows[id] = &PendingCredit{
		ID:           id,
		SubscriberID: subscriberID,
		CreditAmount: amount,
		Active:       1,
		CreatedAt:    time.Now().Add(-age),
	}
	return id
}

func (r *repoStub) Create(_ context.Context, p CreateParams) error {
	if r.duplicate {
		return ErrDuplicateEntry
	}
	r.addRow(p.SubscriberID, p.CreditAmount, 0)
	return nil
}

func (r *repoStub) SelectMatured(_ context.Context, subscriberID *int64, before time.Time) ([]PendingCredit, error) {
	var out []PendingCredit
	for _, row := range r.rows {
		if row.Transferred != 0 || row.Active != 1 || row.CreatedAt.After(before) {
			continue
		}
		if subscriberID != nil && row.SubscriberID != *subscriberID {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}

func (r *repoStub) SettleOne(_ context.Context, id int64) (*SettledEntry, error) {
	if r.settleErr != nil {
		return nil, r.settleErr
	}
	r.settleCnt++
	row, ok := r.rows[id]
	if !ok || r.claimedIDs[id] || row.Transferred != 0 {
		return nil, nil
	}
	row.Transferred = 1
	r.credits[row.SubscriberID] += row.CreditAmount
	return &SettledEntry{
		PendingID:    row.ID,
		SubscriberID: row.SubscriberID,
		Amount:       row.CreditAmount,
	}, nil
}

func (r *repoStub) OutstandingBySubscriber(_ context.Context, subscriberID int64) (Outstanding, error) {
	var out Outstanding
	for _, row := range r.rows {
		if row.SubscriberID == subscriberID && row.Transferred == 0 && row.Active == 1 {
			out.Total += row.CreditAmount
			out.Entries = append(out.Entries, *row)
		}
	}
	return out, nil
}

func (r *repoStub) DeleteTransferredBefore(context.Context, time.Time) (int64, error) { return 0, nil }
func (r *repoStub) CountStaleUnsettled(context.Context, time.Time) (int64, error)     { return 0, nil }

type sourceStub struct {
	repo *repoStub
	ids  map[string]int64
}

func (s *sourceStub) CreditByID(_ context.Context, id int64) (float64, error) {
	return s.repo.credits[id], nil
}

func (s *sourceStub) IDByMobile(_ context.Context, mobile string) (int64, error) {
	id, ok := s.ids[mobile]
	if !ok {
		return 0, ErrSubscriberNotFound
	}
	return id, nil
}

func newTestService(repo *repoStub) *Service {
	return NewService(repo, &sourceStub{repo: repo, ids: map[string]int64{}}, 48*time.Hour, 5000)
}

func TestSettleMaturedHonorsMaturityWindow(t *testing.T) {
	repo := newRepoStub()
	matured := repo.addRow(1, 24.5, 50*time.Hour)
	young := repo.addRow(1, 10.0, 3*time.Hour)

	svc := newTestService(repo)
	result, err := svc.SettleMatured(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Count != 1 {
		t.Fatalf("expected 1 settled row, got %d", result.Count)
	}
	if result.Amount != 24.5 {
		t.Fatalf("expected settled amount 24.5, got %v", result.Amount)
	}
	if repo.rows[matured].Transferred != 1 {
		t.Fatal("matured row not marked transferred")
	}
	if repo.rows[young].Transferred != 0 {
		t.Fatal("row inside the maturity window must not settle")
	}
}

func TestSettleMaturedNeverSettlesTwice(t *testing.T) {
	repo := newRepoStub()
	repo.addRow(1, 12.0, 72*time.Hour)
	svc := newTestService(repo)

	first, err := svc.SettleMatured(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.SettleMatured(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Count != 1 || second.Count != 0 {
		t.Fatalf("expected counts 1 then 0, got %d then %d", first.Count, second.Count)
	}
	if repo.credits[1] != 12.0 {
		t.Fatalf("expected credit 12.0, got %v", repo.credits[1])
	}
}

func TestSettleMaturedSkipsClaimedRows(t *testing.T) {
	repo := newRepoStub()
	claimed := repo.addRow(1, 5.0, 72*time.Hour)
	repo.addRow(1, 7.5, 72*time.Hour)
	repo.claimedIDs[claimed] = true

	svc := newTestService(repo)
	result, err := svc.SettleMatured(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Count != 1 {
		t.Fatalf("expected 1 settled row, got %d", result.Count)
	}
	if result.Amount != 7.5 {
		t.Fatalf("expected amount 7.5, got %v", result.Amount)
	}
}

func TestSettleMaturedFiltersBySubscriber(t *testing.T) {
	repo := newRepoStub()
	repo.addRow(1, 3.0, 72*time.Hour)
	repo.addRow(2, 4.0, 72*time.Hour)

	svc := newTestService(repo)
	one := int64(1)
	result, err := svc.SettleMatured(context.Background(), &one)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Count != 1 || result.Amount != 3.0 {
		t.Fatalf("expected only subscriber 1 settled, got count=%d amount=%v", result.Count, result.Amount)
	}
	if repo.credits[2] != 0 {
		t.Fatal("subscriber 2 must be untouched")
	}
}

func TestCreateDuplicateIsNoop(t *testing.T) {
	repo := newRepoStub()
	repo.duplicate = true

	svc := newTestService(repo)
	purchaseID := int64(77)
	err := svc.Create(context.Background(), CreateParams{
		SubscriberID: 1,
		Mobile:       "09123456789",
		PurchaseID:   &purchaseID,
		CreditAmount: 1.0,
	})
	if err != nil {
		t.Fatalf("duplicate entry must not be an error, got %v", err)
	}
}

func TestCreateRejectsNonPositiveAmount(t *testing.T) {
	svc := newTestService(newRepoStub())

	for _, amount := range []float64{0, -1.5} {
		err := svc.Create(context.Background(), CreateParams{SubscriberID: 1, CreditAmount: amount})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %v: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestCombinedBalanceSettlesFirst(t *testing.T) {
	repo := newRepoStub()
	repo.credits[1] = 10.0
	repo.addRow(1, 24.5, 50*time.Hour)
	repo.addRow(1, 2.0, 1*time.Hour)

	svc := newTestService(repo)
	balance, err := svc.CombinedBalance(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if balance.Available != 34.5 {
		t.Fatalf("expected available 34.5, got %v", balance.Available)
	}
	if balance.Pending != 2.0 {
		t.Fatalf("expected pending 2.0, got %v", balance.Pending)
	}
	if balance.Total != 36.5 {
		t.Fatalf("expected total 36.5, got %v", balance.Total)
	}
	if balance.TotalCurrency != 182500 {
		t.Fatalf("expected total currency 182500, got %d", balance.TotalCurrency)
	}
}

func TestCombinedBalanceRoundsFloatSums(t *testing.T) {
	repo := newRepoStub()
	repo.addRow(1, 0.1, 1*time.Hour)
	repo.addRow(1, 0.7, 1*time.Hour)

	svc := newTestService(repo)
	balance, err := svc.CombinedBalance(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if balance.Pending != 0.8 {
		t.Fatalf("expected pending 0.8, got %v", balance.Pending)
	}
	if balance.PendingCurrency != 4000 {
		t.Fatalf("expected pending currency 4000, got %d", balance.PendingCurrency)
	}
	if balance.Total != 0.8 || balance.TotalCurrency != 4000 {
		t.Fatalf("expected total 0.8/4000, got %v/%d", balance.Total, balance.TotalCurrency)
	}
}

func TestSettleMaturedReturnsPartialResultOnError(t *testing.T) {
	repo := newRepoStub()
	repo.addRow(1, 5.0, 72*time.Hour)
	repo.settleErr = ErrInternal

	svc := newTestService(repo)
	result, err := svc.SettleMatured(context.Background(), nil)
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	if result.Count != 0 {
		t.Fatalf("expected no settled rows, got %d", result.Count)
	}
}
