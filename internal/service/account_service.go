package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/safar/go-sql-storefront/internal/auth"
	"github.com/safar/go-sql-storefront/internal/database"
	"github.com/safar/go-sql-storefront/internal/models"
	"github.com/safar/go-sql-storefront/internal/store"
)

// ValidationError carries a message that is safe to show the caller.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

var ErrWrongPassword = errors.New("current password is incorrect")

type UserRepository interface {
	CreateUser(ctx context.Context, u store.NewUser) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type TokenIssuer interface {
	Issue(userID, email, role string) (string, error)
}

type RegisterRequest struct {
	Username string
	Name     string
	Email    string
	Password string
}

type Session struct {
	User  *models.User
	Token string
}

type AccountService struct {
	users  UserRepository
	tokens TokenIssuer
}

func NewAccountService(users UserRepository, tokens TokenIssuer) *AccountService {
	return &AccountService{users: users, tokens: tokens}
}

func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := auth.ValidateUsername(req.Username); err != nil {
		return nil, &ValidationError{Field: "username", Err: err}
	}
	if err := auth.ValidateEmail(req.Email); err != nil {
		return nil, &ValidationError{Field: "email", Err: err}
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, &ValidationError{Field: "password", Err: err}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = req.Username
	}

	user, err := s.users.CreateUser(ctx, store.NewUser{
		Username:     req.Username,
		Name:         name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	})
	if err != nil {
		return nil, err
	}

	return s.session(user)
}

// Login answers auth.ErrInvalidCredential for both an unknown email and a
// wrong password.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, database.ErrUserNotFound) {
		return nil, auth.ErrInvalidCredential
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}

	return s.session(user)
}

func (s *AccountService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := auth.CheckPassword(user.PasswordHash, current); err != nil {
		if errors.Is(err, auth.ErrInvalidCredential) {
			return ErrWrongPassword
		}
		return err
	}
	if err := auth.ValidatePassword(next); err != nil {
		return &ValidationError{Field: "newPassword", Err: err}
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

func (s *AccountService) session(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}
