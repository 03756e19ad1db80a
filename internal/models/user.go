package models

// RoleUser is the role every self-registered account starts with.
const RoleUser = "USER"

// User is a registered account. Username and email are globally unique and
// immutable after registration; active=false is the only deactivation path
// and is honored by every lookup.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	Active       bool   `json:"active"`
}
