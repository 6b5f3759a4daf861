package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/safar/go-sql-storefront/internal/auth"
	"github.com/safar/go-sql-storefront/internal/models"
	"github.com/safar/go-sql-storefront/internal/respond"
)

type contextKey string

const (
	userKey     contextKey = "user"
	userSlotKey contextKey = "user_slot"
)

// userSlot lets the request logger, which runs outside the auth middleware,
// see the user resolved further down the chain.
type userSlot struct {
	user *models.User
}

type CredentialResolver interface {
	Resolve(ctx context.Context, credential string) (*models.User, error)
}

func WithUser(ctx context.Context, user *models.User) context.Context {
	if slot, ok := ctx.Value(userSlotKey).(*userSlot); ok {
		slot.user = user
	}
	return context.WithValue(ctx, userKey, user)
}

// UserFrom returns the authenticated user, or nil for anonymous requests.
func UserFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// Auth resolves the request credential into a user on the context.
type Auth struct {
	resolver     CredentialResolver
	cookieSecure bool
	log          *slog.Logger
}

func NewAuth(resolver CredentialResolver, cookieSecure bool, log *slog.Logger) *Auth {
	return &Auth{resolver: resolver, cookieSecure: cookieSecure, log: log}
}

// Required rejects requests without a valid credential.
func (a *Auth) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := auth.Credential(r)
		if credential == "" {
			respond.Error(w, http.StatusUnauthorized, "Not authenticated", a.log)
			return
		}

		user, err := a.resolver.Resolve(r.Context(), credential)
		if err != nil {
			a.reject(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// Optional attaches the user when a valid credential is present and carries
// on anonymously otherwise. An expired cookie is still cleared.
func (a *Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := auth.Credential(r)
		if credential == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := a.resolver.Resolve(r.Context(), credential)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				ClearAuthCookie(w, a.cookieSecure)
			} else if !errors.Is(err, auth.ErrInvalidCredential) {
				a.log.Error("failed to resolve credential", "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireRole must run after Required.
func (a *Auth) RequireRole(role string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFrom(r.Context())
			if user == nil {
				respond.Error(w, http.StatusUnauthorized, "Not authenticated", a.log)
				return
			}
			if user.Role != role {
				respond.Error(w, http.StatusForbidden, "Access denied", a.log)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *Auth) reject(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		ClearAuthCookie(w, a.cookieSecure)
		respond.Error(w, http.StatusUnauthorized, "Token expired", a.log)
	case errors.Is(err, auth.ErrInvalidCredential):
		respond.Error(w, http.StatusUnauthorized, "Invalid token", a.log)
	default:
		a.log.Error("failed to resolve credential", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Internal server error", a.log)
	}
}

func SetAuthCookie(w http.ResponseWriter, token string, maxAge int, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearAuthCookie(w http.ResponseWriter, secure bool) {
	SetAuthCookie(w, "", -1, secure)
}
