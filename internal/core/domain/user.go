package domain

import "time"

// Role is the closed set of actor roles. Authorization decisions switch on
// this type, so adding a role is a compile-visible change.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleVendor   Role = "vendor"
	RoleSupplier Role = "supplier"
	RoleCustomer Role = "customer"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleVendor, RoleSupplier, RoleCustomer:
		return true
	}
	return false
}

// User models an authenticated actor in the marketplace.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Points       int       `json:"points"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
