package auth

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

const passwordSpecials = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?"

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	reservedUsernames = map[string]bool{
		"admin": true, "root": true, "user": true, "test": true,
		"null": true, "undefined": true, "system": true,
	}
)

func ValidateUsername(username string) error {
	switch {
	case len(username) < 3:
		return errors.New("username must be at least 3 characters long")
	case len(username) > 20:
		return errors.New("username must be no more than 20 characters long")
	case !usernamePattern.MatchString(username):
		return errors.New("username can only contain letters, numbers, underscores and hyphens")
	case username[0] >= '0' && username[0] <= '9':
		return errors.New("username cannot start with a number")
	case reservedUsernames[strings.ToLower(username)]:
		return errors.New("this username is not allowed")
	}
	return nil
}

func ValidatePassword(password string) error {
	switch {
	case len(password) < 8:
		return errors.New("password must be at least 8 characters long")
	case len(password) > 128:
		return errors.New("password must be no more than 128 characters long")
	case !strings.ContainsFunc(password, isASCIIUpper):
		return errors.New("password must contain at least one uppercase letter")
	case !strings.ContainsFunc(password, isASCIILower):
		return errors.New("password must contain at least one lowercase letter")
	case !strings.ContainsFunc(password, unicode.IsDigit):
		return errors.New("password must contain at least one number")
	case !strings.ContainsAny(password, passwordSpecials):
		return errors.New("password must contain at least one special character")
	case hasTripleRepeat(password):
		return errors.New("password cannot contain more than 2 consecutive identical characters")
	}
	return nil
}

func ValidateEmail(email string) error {
	switch {
	case email == "":
		return errors.New("email is required")
	case !emailPattern.MatchString(email):
		return errors.New("please enter a valid email address")
	case len(email) > 254:
		return errors.New("email address is too long")
	}
	return nil
}

func isASCIIUpper(r rune) bool { return r >= 'A' && r <= 'Z' }

func isASCIILower(r rune) bool { return r >= 'a' && r <= 'z' }

func hasTripleRepeat(s string) bool {
	runes := []rune(s)
	for i := 2; i < len(runes); i++ {
		if runes[i] == runes[i-1] && runes[i] == runes[i-2] {
			return true
		}
	}
	return false
}
