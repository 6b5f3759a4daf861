package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/safar/go-sql-storefront/internal/auth"
	"github.com/safar/go-sql-storefront/internal/database"
	"github.com/safar/go-sql-storefront/internal/models"
	"github.com/safar/go-sql-storefront/internal/store"
)

type memoryUsers struct {
	byID map[string]*models.User
	seq  int
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: map[string]*models.User{}}
}

func (m *memoryUsers) CreateUser(ctx context.Context, u store.NewUser) (*models.User, error) {
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return nil, database.ErrEmailTaken
		}
		if existing.Username == u.Username {
			return nil, database.ErrUsernameTaken
		}
	}
	m.seq++
	user := &models.User{
		ID:           string(rune('a' + m.seq)),
		Username:     u.Username,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
	}
	m.byID[user.ID] = user
	return user, nil
}

func (m *memoryUsers) GetUser(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, database.ErrUserNotFound
}

func (m *memoryUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, database.ErrUserNotFound
}

func (m *memoryUsers) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	u, ok := m.byID[id]
	if !ok {
		return database.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func TestRegisterAndLogin(t *testing.T) {
	users := newMemoryUsers()
	tokens := auth.NewTokenService("secret", time.Hour)
	svc := NewAccountService(users, tokens)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterRequest{Username: "alice", Email: " Alice@Example.com ", Password: "Str0ng!pass"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if session.User.Email != "alice@example.com" || session.User.Name != "alice" || session.User.Role != models.RoleUser {
		t.Errorf("Unexpected user %+v", session.User)
	}
	if session.User.PasswordHash == "Str0ng!pass" {
		t.Error("Password must be stored hashed")
	}

	claims, err := tokens.Verify(session.Token)
	if err != nil || claims.UserID != session.User.ID {
		t.Errorf("Token should verify for the new user: %+v, %v", claims, err)
	}

	if _, err := svc.Login(ctx, "alice@example.com", "Str0ng!pass"); err != nil {
		t.Errorf("Login: %v", err)
	}
	if _, err := svc.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, auth.ErrInvalidCredential) {
		t.Errorf("Expected ErrInvalidCredential for wrong password, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "Str0ng!pass"); !errors.Is(err, auth.ErrInvalidCredential) {
		t.Errorf("Expected ErrInvalidCredential for unknown email, got %v", err)
	}

	if _, err := svc.Register(ctx, RegisterRequest{Username: "alice2", Email: "alice@example.com", Password: "Str0ng!pass"}); !errors.Is(err, database.ErrEmailTaken) {
		t.Errorf("Expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAccountService(newMemoryUsers(), auth.NewTokenService("secret", time.Hour))

	tests := []struct {
		name  string
		req   RegisterRequest
		field string
	}{
		{name: "bad username", req: RegisterRequest{Username: "1x", Email: "a@example.com", Password: "Str0ng!pass"}, field: "username"},
		{name: "bad email", req: RegisterRequest{Username: "alice", Email: "nope", Password: "Str0ng!pass"}, field: "email"},
		{name: "weak password", req: RegisterRequest{Username: "alice", Email: "a@example.com", Password: "password"}, field: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req)
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("Expected validation error on %s, got %v", tt.field, err)
			}
		})
	}
}

func TestChangePassword(t *testing.T) {
	users := newMemoryUsers()
	svc := NewAccountService(users, auth.NewTokenService("secret", time.Hour))
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "Str0ng!pass"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	id := session.User.ID

	if err := svc.ChangePassword(ctx, id, "wrong", "N3w!passw0rd"); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("Expected ErrWrongPassword, got %v", err)
	}
	var verr *ValidationError
	if err := svc.ChangePassword(ctx, id, "Str0ng!pass", "weak"); !errors.As(err, &verr) {
		t.Errorf("Expected validation error, got %v", err)
	}
	if err := svc.ChangePassword(ctx, id, "Str0ng!pass", "N3w!passw0rd"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.Login(ctx, "bob@example.com", "N3w!passw0rd"); err != nil {
		t.Errorf("Login with new password: %v", err)
	}
}
