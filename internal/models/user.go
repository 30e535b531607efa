package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleOwner    UserRole = "OWNER"
	RoleOffice   UserRole = "OFFICE"
	RoleMechanic UserRole = "MECHANIC"
)

// Valid reports whether the role is one of the known values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleOwner, RoleOffice, RoleMechanic:
		return true
	default:
		return false
	}
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	WorkshopID   string     `db:"workshop_id" json:"workshop_id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at" json:"-"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// UserSortColumns whitelists sortable columns for the user list.
var UserSortColumns = map[string]string{
	"last_name":  "u.last_name",
	"first_name": "u.first_name",
	"email":      "u.email",
	"created_at": "u.created_at",
}
