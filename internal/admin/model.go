package admin

import (
	"net/mail"
	"strings"
	"time"
)

// Role is an administrator role.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// Admin is a back-office account. The password hash never leaves the package.
type Admin struct {
	ID          string     `json:"id"          example:"e7eedc79-0707-4fe4-8734-526b7ef13a7b"`
	Name        string     `json:"name"        example:"Jane Doe"`
	Email       string     `json:"email"       example:"jane@example.com"`
	Role        Role       `json:"role"        example:"admin"`
	Permissions []string   `json:"permissions"`
	IsActive    bool       `json:"isActive"    example:"true"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	passwordHash string
}

// RegisterInput holds the fields for a new admin.
type RegisterInput struct {
	Name        string   `json:"name"        example:"Jane Doe"`
	Email       string   `json:"email"       example:"jane@example.com"`
	Password    string   `json:"password"    example:"s3cret!"`
	Role        Role     `json:"role"        example:"admin"`
	Permissions []string `json:"permissions,omitempty"`
}

// UpdateInput holds optional admin changes. Nil fields are left as-is.
type UpdateInput struct {
	Name        *string   `json:"name,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Password    *string   `json:"password,omitempty"`
	Role        *Role     `json:"role,omitempty"`
	Permissions *[]string `json:"permissions,omitempty"`
	IsActive    *bool     `json:"isActive,omitempty"`
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	Role     Role
	IsActive *bool
}

// DefaultPermissions returns the permission set granted when none is given.
func DefaultPermissions(role Role) []string {
	if role == RoleSuperAdmin {
		return []string{"all"}
	}
	return []string{"read", "write"}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
