// internal/users/service.go
package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidRole        = errors.New("role must be customer, merchant or admin")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrRateLimited        = errors.New("rate limit exceeded")
)

// Service defines the interface for the user account service.
type Service interface {
	Register(ctx context.Context, email, name, password, role string) (*User, error)
	Authenticate(ctx context.Context, email, password string) (*User, error)
	Get(ctx context.Context, id uuid.UUID) (*User, error)
}
