package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/safar/go-sql-storefront/internal/database"
	"github.com/safar/go-sql-storefront/internal/models"
)

type NewUser struct {
	Username     string
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

const userColumns = `id, username, name, email, password_hash, role, created_at, updated_at, version`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.Version,
	)
	return user, err
}

func CreateUser(ctx context.Context, db *sql.DB, u NewUser) (*models.User, error) {
	if u.Role == "" {
		u.Role = models.RoleUser
	}

	query := `
		INSERT INTO users (id, username, name, email, password_hash, role, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW(), 1)
		RETURNING ` + userColumns

	user, err := scanUser(db.QueryRowContext(ctx, query,
		uuid.NewString(), u.Username, u.Name, u.Email, u.PasswordHash, u.Role))
	if err != nil {
		switch {
		case database.IsUniqueViolation(err, "users_email_key"):
			return nil, database.ErrEmailTaken
		case database.IsUniqueViolation(err, "users_username_key"):
			return nil, database.ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func GetUser(ctx context.Context, db *sql.DB, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, database.ErrUserNotFound
	}

	user, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*models.User, error) {
	user, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return user, nil
}

func UpdatePassword(ctx context.Context, db *sql.DB, id, passwordHash string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users
		 SET password_hash = $1, version = version + 1, updated_at = NOW()
		 WHERE id = $2`,
		passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrUserNotFound
	}

	return nil
}
