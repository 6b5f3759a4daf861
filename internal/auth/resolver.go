package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/safar/go-sql-storefront/internal/database"
	"github.com/safar/go-sql-storefront/internal/models"
)

// CookieName carries the session token for browser clients.
const CookieName = "auth_token"

type UserFinder interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Resolver maps a credential to the user it was issued for.
type Resolver struct {
	tokens *TokenService
	users  UserFinder
}

func NewResolver(tokens *TokenService, users UserFinder) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

func (r *Resolver) Resolve(ctx context.Context, credential string) (*models.User, error) {
	if credential == "" {
		return nil, ErrInvalidCredential
	}

	claims, err := r.tokens.Verify(credential)
	if err != nil {
		return nil, err
	}

	user, err := r.users.GetUser(ctx, claims.UserID)
	if errors.Is(err, database.ErrUserNotFound) {
		return nil, ErrInvalidCredential
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// Credential extracts a bearer token from the Authorization header, falling
// back to the auth cookie. It returns "" when neither is present.
func Credential(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}
