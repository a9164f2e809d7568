package services

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 8
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

func ValidateUsername(v string) error {
	if strings.TrimSpace(v) == "" {
		return invalid("username", "Username cannot be empty")
	}
	if n := utf8.RuneCountInString(v); n < minUsernameLen || n > maxUsernameLen {
		return invalid("username", "Username must be between 3 and 50 characters")
	}
	if !usernamePattern.MatchString(v) {
		return invalid("username", "Username can only contain letters, numbers, and underscores")
	}
	return nil
}

func ValidateEmail(v string) error {
	if strings.TrimSpace(v) == "" {
		return invalid("email", "Email cannot be empty")
	}
	if !emailPattern.MatchString(v) {
		return invalid("email", "Please enter a valid email address")
	}
	return nil
}

func ValidatePasswordChange(current, next string) error {
	if strings.TrimSpace(current) == "" {
		return invalid("currentPassword", "Current password is required")
	}
	if strings.TrimSpace(next) == "" {
		return invalid("newPassword", "New password is required")
	}
	if utf8.RuneCountInString(next) < minPasswordLen {
		return invalid("newPassword", "New password must be at least 8 characters long")
	}
	if current == next {
		return invalid("newPassword", "New password must be different from current password")
	}
	return nil
}

func validateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return invalid("username", "Username is required")
	}
	if password == "" {
		return invalid("password", "Password is required")
	}
	return nil
}

func validateCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return invalid("otpCode", "Verification code is required")
	}
	return nil
}
