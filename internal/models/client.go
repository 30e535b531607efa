package models

import "time"

// Client represents a workshop customer.
type Client struct {
	ID         string     `db:"id" json:"id"`
	WorkshopID string     `db:"workshop_id" json:"workshop_id"`
	FirstName  string     `db:"first_name" json:"first_name"`
	LastName   string     `db:"last_name" json:"last_name"`
	Phone      string     `db:"phone" json:"phone"`
	Email      string     `db:"email" json:"email"`
	Street     string     `db:"street" json:"street"`
	City       string     `db:"city" json:"city"`
	PostalCode string     `db:"postal_code" json:"postal_code"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at" json:"-"`
}

// ClientFilter captures list parameters for clients.
type ClientFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ClientSortColumns whitelists sortable columns for the client list.
var ClientSortColumns = map[string]string{
	"last_name":  "c.last_name",
	"first_name": "c.first_name",
	"city":       "c.city",
	"created_at": "c.created_at",
}
