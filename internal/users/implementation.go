// internal/users/implementation.go
package users

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/time/rate"

	"snapit/internal/logger"
)

// service implements the Service interface.
type service struct {
	db          *sql.DB
	rateLimiter *rate.Limiter
	log         *logger.Logger
}

// NewService creates a new user account service instance.
func NewService(db *sql.DB, log *logger.Logger) Service {
	return &service{
		db:          db,
		rateLimiter: rate.NewLimiter(rate.Every(1*time.Minute), 5), // 5 requests per minute
		log:         log.With("component", "users"),
	}
}

// Register creates a new account with its credentials.
func (s *service) Register(ctx context.Context, email, name, password, role string) (*User, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if role != RoleCustomer && role != RoleMerchant && role != RoleAdmin {
		return nil, ErrInvalidRole
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	passwordHash, salt, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:    uuid.New(),
		Email: email,
		Name:  strings.TrimSpace(name),
		Role:  role,
	}
	credential := &Credential{
		UserID:       user.ID,
		PasswordHash: passwordHash,
		Salt:         salt,
	}

	if err := s.insertUser(ctx, user, credential); err != nil {
		return nil, err
	}

	s.log.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *service) insertUser(ctx context.Context, user *User, credential *Credential) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (id, email, name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, user.ID, user.Email, user.Name, user.Role).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO credentials (user_id, password_hash, salt)
		VALUES ($1, $2, $3)
	`, credential.UserID, credential.PasswordHash, credential.Salt)
	if err != nil {
		return fmt.Errorf("insert credentials: %w", err)
	}

	return tx.Commit()
}

// Authenticate verifies credentials and returns the account if successful.
func (s *service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}

	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.getByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	var hash, salt string
	err = s.db.QueryRowContext(ctx, `
		SELECT password_hash, salt
		FROM credentials
		WHERE user_id = $1
	`, user.ID).Scan(&hash, &salt)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	ok, err := verifyPassword(password, salt, hash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Get retrieves an account by its ID.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	user := &User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id).Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *service) getByEmail(ctx context.Context, email string) (*User, error) {
	user := &User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email).Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}
