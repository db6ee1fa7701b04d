package auth

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/daily-reflections/core/internal/pkg/apperr"
)

const minPasswordLength = 8

type SignUpDTO struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

func (d *SignUpDTO) Validate() error {
	d.Email = normalizeEmail(d.Email)
	d.Name = strings.TrimSpace(d.Name)
	if addr, err := mail.ParseAddress(d.Email); err != nil || addr.Address != d.Email {
		return apperr.Validation("email is invalid")
	}
	if utf8.RuneCountInString(d.Password) < minPasswordLength {
		return apperr.Validation("password must be at least 8 characters")
	}
	if utf8.RuneCountInString(d.Name) > 255 {
		return apperr.Validation("name is too long")
	}
	return nil
}

type SignInDTO struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

type sessionResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
}

var (
	errEmailTaken     = errors.New("an account with this email already exists")
	errBadCredentials = errors.New("invalid email or password")
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
