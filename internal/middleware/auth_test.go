package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bonuslab/loyalty-api/internal/pkg/jwt"
)

func TestAuthAllowsValidToken(t *testing.T) {
	jwtSvc := jwt.NewService("secret", time.Hour)
	token, err := jwtSvc.GenerateToken("09120000001", "seller")
	if err != nil {
		t.Fatalf("token gen failed: %v", err)
	}

	var seen Actor
	protected := Auth(jwtSvc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetActor(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if seen.Mobile != "09120000001" || seen.Role != "seller" || seen.Privileged {
		t.Fatalf("unexpected actor: %+v", seen)
	}
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	jwtSvc := jwt.NewService("secret", time.Hour)

	protected := Auth(jwtSvc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequirePrivilegedBlocksSellers(t *testing.T) {
	jwtSvc := jwt.NewService("secret", time.Hour)

	cases := []struct {
		role string
		want int
	}{
		{"seller", http.StatusForbidden},
		{"manager", http.StatusOK},
	}

	for _, c := range cases {
		token, err := jwtSvc.GenerateToken("09120000001", c.role)
		if err != nil {
			t.Fatalf("token gen failed: %v", err)
		}

		protected := Auth(jwtSvc)(RequirePrivileged(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))

		req := httptest.NewRequest(http.MethodPost, "/admins", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)

		if w.Code != c.want {
			t.Fatalf("role %s: expected %d, got %d", c.role, c.want, w.Code)
		}
	}
}
