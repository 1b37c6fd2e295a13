package model

import "time"

// RoleOperator is the only privileged role: trip-management staff.  Public
// booking endpoints are unauthenticated and identified solely by
// confirmation codes, so there is no customer account model.
const RoleOperator = "OPERATOR"

// User is an operator account as stored in the `users` table.  Only the
// bcrypt hash of the password is persisted.
//
// Fields:
//
//	ID           – primary key identifier.
//	Email        – unique email address.
//	PasswordHash – bcrypt hashed password.
//	Role         – role name (currently always OPERATOR).
//	IsActive     – whether the account may log in.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models a row in `refresh_tokens`.  The plain token is never
// stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
