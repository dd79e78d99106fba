package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bonuslab/loyalty-api/internal/pkg/jwt"
	"github.com/bonuslab/loyalty-api/internal/pkg/password"
)

type repoStub struct {
	byMobile map[string]*Admin
}

func newRepoStub() *repoStub {
	return &repoStub{byMobile: map[string]*Admin{}}
}

func (r *repoStub) GetByMobile(_ context.Context, mobile string) (*Admin, error) {
	return r.byMobile[mobile], nil
}

func (r *repoStub) Create(_ context.Context, a *Admin) error {
	if _, exists := r.byMobile[a.Mobile]; exists {
		return ErrMobileExists
	}
	a.ID = int64(len(r.byMobile) + 1)
	r.byMobile[a.Mobile] = a
	return nil
}

func (r *repoStub) List(context.Context) ([]Admin, error) {
	out := make([]Admin, 0, len(r.byMobile))
	for _, a := range r.byMobile {
		out = append(out, *a)
	}
	return out, nil
}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	return NewService(repo, jwt.NewService("test-secret", 24*time.Hour))
}

func seedAdmin(t *testing.T, repo *repoStub, mobile, pass, role string) {
	t.Helper()
	hash, err := password.Hash(pass)
	if err != nil {
		t.Fatal(err)
	}
	repo.byMobile[mobile] = &Admin{ID: 1, Mobile: mobile, PasswordHash: hash, Role: role}
}

func TestLoginSuccess(t *testing.T) {
	repo := newRepoStub()
	seedAdmin(t, repo, "09120000001", "secret123", RoleManager)
	svc := newTestService(t, repo)

	resp, err := svc.Login(context.Background(), &LoginRequest{Mobile: "09120000001", Password: "secret123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a session token")
	}
	if resp.Admin.Role != RoleManager {
		t.Fatalf("expected manager role, got %q", resp.Admin.Role)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newRepoStub()
	seedAdmin(t, repo, "09120000001", "secret123", RoleSeller)
	svc := newTestService(t, repo)

	_, err := svc.Login(context.Background(), &LoginRequest{Mobile: "09120000001", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownMobile(t *testing.T) {
	svc := newTestService(t, newRepoStub())

	_, err := svc.Login(context.Background(), &LoginRequest{Mobile: "09129999999", Password: "whatever"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestCreateHashesPassword(t *testing.T) {
	repo := newRepoStub()
	svc := newTestService(t, repo)

	a, err := svc.Create(context.Background(), &CreateRequest{
		Mobile:   "09120000002",
		Name:     "Seller One",
		Password: "secret123",
		Role:     RoleSeller,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.PasswordHash == "secret123" {
		t.Fatal("password stored unhashed")
	}
	if !password.Verify("secret123", a.PasswordHash) {
		t.Fatal("stored hash does not verify the password")
	}
}

func TestCreateDuplicateMobile(t *testing.T) {
	repo := newRepoStub()
	seedAdmin(t, repo, "09120000001", "secret123", RoleSeller)
	svc := newTestService(t, repo)

	_, err := svc.Create(context.Background(), &CreateRequest{
		Mobile:   "09120000001",
		Name:     "Dup",
		Password: "secret123",
		Role:     RoleSeller,
	})
	if !errors.Is(err, ErrMobileExists) {
		t.Fatalf("expected ErrMobileExists, got %v", err)
	}
}
