package model

import "time"

// User represents an account row in the `users` table.  Role is either
// CUSTOMER or ADMIN.
type User struct {
	ID           string    // users.id (UUID)
	Email        string    // users.email, stored lower-case
	PasswordHash string    // users.password_hash (bcrypt)
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)
