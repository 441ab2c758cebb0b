package models

import "time"

// UserRole is the access level of a staff account.
type UserRole string

const (
	RoleAdmin       UserRole = "admin"
	RoleCoordinator UserRole = "coordinator"
	RoleTeacher     UserRole = "teacher"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleCoordinator, RoleTeacher:
		return true
	}
	return false
}

// User is a staff account. Email is stored trimmed and lower-cased.
type User struct {
	ID                   string     `db:"id" json:"id"`
	Email                string     `db:"email" json:"email"`
	PasswordHash         string     `db:"password_hash" json:"-"`
	Name                 string     `db:"name" json:"name"`
	Role                 UserRole   `db:"role" json:"role"`
	ResetPasswordToken   *string    `db:"reset_password_token" json:"-"`
	ResetPasswordExpires *time.Time `db:"reset_password_expires" json:"-"`
	CreatedAt            time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updatedAt"`
}

// IsAdmin is a shorthand used by the last-admin guards.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
