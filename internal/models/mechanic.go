package models

import "time"

// Mechanic is a workshop employee performing repairs. Mechanics are not
// login principals; a mechanic user account references the same person via
// the MECHANIC role.
type Mechanic struct {
	ID         string     `db:"id" json:"id"`
	WorkshopID string     `db:"workshop_id" json:"workshop_id"`
	FirstName  string     `db:"first_name" json:"first_name"`
	LastName   string     `db:"last_name" json:"last_name"`
	Active     bool       `db:"active" json:"is_active"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at" json:"-"`
}

// MechanicFilter captures list parameters for mechanics.
type MechanicFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// MechanicSortColumns whitelists sortable columns for the mechanic list.
var MechanicSortColumns = map[string]string{
	"last_name":  "m.last_name",
	"first_name": "m.first_name",
	"created_at": "m.created_at",
}
