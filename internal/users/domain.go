// internal/users/domain.go
package users

import (
	"time"

	"github.com/google/uuid"
)

// Roles gate what an account can do: customers snap listings, merchants
// own inventories, admins manage the catalog and bulk deletes.
const (
	RoleCustomer = "customer"
	RoleMerchant = "merchant"
	RoleAdmin    = "admin"
)

// User is a marketplace account.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Credential is a user's login secret material.
type Credential struct {
	UserID       uuid.UUID `json:"user_id"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
}

// UserRegisteredEvent is published when a new account is created.
type UserRegisteredEvent struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}
