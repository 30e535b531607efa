package models

import "time"

// Workshop is the tenant root. Every other business entity is partitioned
// by its workshop_id.
type Workshop struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
