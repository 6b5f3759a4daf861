package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/safar/go-sql-storefront/internal/database"
	"github.com/safar/go-sql-storefront/internal/models"
)

type fakeUsers map[string]*models.User

func (f fakeUsers) GetUser(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, database.ErrUserNotFound
}

func TestResolve(t *testing.T) {
	tokens := NewTokenService("secret", time.Hour)
	users := fakeUsers{"u1": {ID: "u1", Email: "a@example.com", Role: models.RoleUser}}
	r := NewResolver(tokens, users)

	valid, _ := tokens.Issue("u1", "a@example.com", models.RoleUser)
	ghost, _ := tokens.Issue("deleted", "g@example.com", models.RoleUser)

	user, err := r.Resolve(context.Background(), valid)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if user.ID != "u1" {
		t.Errorf("Expected u1, got %s", user.ID)
	}

	if _, err := r.Resolve(context.Background(), ghost); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("Expected ErrInvalidCredential for missing user, got %v", err)
	}
	if _, err := r.Resolve(context.Background(), ""); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("Expected ErrInvalidCredential for empty credential, got %v", err)
	}
}

func TestCredential(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{name: "bearer header", header: "Bearer abc", want: "abc"},
		{name: "lower case scheme", header: "bearer abc", want: "abc"},
		{name: "cookie fallback", cookie: "xyz", want: "xyz"},
		{name: "header wins", header: "Bearer abc", cookie: "xyz", want: "abc"},
		{name: "non bearer header uses cookie", header: "Basic Zm9v", cookie: "xyz", want: "xyz"},
		{name: "nothing", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}
			if got := Credential(req); got != tt.want {
				t.Errorf("Credential() = %q, want %q", got, tt.want)
			}
		})
	}
}
