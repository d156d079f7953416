package types

import (
	"strings"
	"time"
)

// Role is the authorization level carried by a principal.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// ParseRole normalizes a role name. It reports false for unknown roles.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleUser:
		return RoleUser, true
	default:
		return "", false
	}
}

// PrincipalSource names the credential table a principal was resolved from.
type PrincipalSource string

const (
	SourceAdmin PrincipalSource = "admin"
	SourceUser  PrincipalSource = "user"
)

// Principal is a resolved identity, independent of the table that produced it.
type Principal struct {
	// ID is the row id within the owning table. Admin and user ids may overlap.
	ID int `json:"id"`

	// Username is unique within its owning table.
	Username string `json:"username"`

	// Role is ADMIN for every admin-table principal and the stored role for users.
	Role Role `json:"role"`

	// Source is the table the principal came from.
	Source PrincipalSource `json:"source"`
}

// IsAdmin reports whether the principal holds the ADMIN role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Admin is a row of the admins table. Its role is implicitly ADMIN.
type Admin struct {
	ID           int       `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Principal returns the uniform view of the admin.
func (a Admin) Principal() Principal {
	return Principal{ID: a.ID, Username: a.Username, Role: RoleAdmin, Source: SourceAdmin}
}

// User represents a customer account, or an elevated account created by an admin.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Mobile is an optional contact number.
	Mobile string `json:"mobile,omitempty" db:"mobile"`

	// SecurityQuestion is shown during password recovery. Empty when not configured.
	SecurityQuestion string `json:"securityQuestion,omitempty" db:"security_question"`

	// SecurityAnswer is compared case-insensitively during password recovery.
	// This field is never exposed in API responses.
	SecurityAnswer string `json:"-" db:"security_answer"`

	// Role is ADMIN or USER.
	Role Role `json:"role" db:"role"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Principal returns the uniform view of the user.
func (u User) Principal() Principal {
	return Principal{ID: u.ID, Username: u.Username, Role: u.Role, Source: SourceUser}
}
