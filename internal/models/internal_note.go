package models

import "time"

// NoteAuthorType discriminates the polymorphic note author.
type NoteAuthorType string

const (
	NoteAuthorUser     NoteAuthorType = "USER"
	NoteAuthorMechanic NoteAuthorType = "MECHANIC"
)

// Valid reports whether the author type is one of the known values.
func (t NoteAuthorType) Valid() bool {
	switch t {
	case NoteAuthorUser, NoteAuthorMechanic:
		return true
	default:
		return false
	}
}

// InternalNote is attached to a repair order and authored by either a user
// or a mechanic, stored as a {type, id} pair. Notes are hard-deleted.
type InternalNote struct {
	ID            string         `db:"id" json:"id"`
	WorkshopID    string         `db:"workshop_id" json:"workshop_id"`
	RepairOrderID string         `db:"repair_order_id" json:"repair_order_id"`
	AuthorType    NoteAuthorType `db:"author_type" json:"author_type"`
	AuthorID      string         `db:"author_id" json:"author_id"`
	Content       string         `db:"content" json:"content"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// InternalNoteDetail carries the resolved author display name.
type InternalNoteDetail struct {
	InternalNote
	AuthorFirstName string `db:"author_first_name" json:"author_first_name"`
	AuthorLastName  string `db:"author_last_name" json:"author_last_name"`
}
