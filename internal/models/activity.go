package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Activity entity types with logged field diffs.
const (
	ActivityEntityRepairOrder = "REPAIR_ORDER"
	ActivityEntityTimeEntry   = "TIME_ENTRY"
)

// FieldChange is a single before/after value pair.
type FieldChange struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// FieldChanges maps changed field names to their diffs. Stored as JSONB.
type FieldChanges map[string]FieldChange

// Value implements driver.Valuer.
func (f FieldChanges) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal(f)
}

// Scan implements sql.Scanner.
func (f *FieldChanges) Scan(src interface{}) error {
	if src == nil {
		*f = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported field changes type %T", src)
	}
	return json.Unmarshal(raw, f)
}

// ActivityLog is an append-only record of dirty-field diffs on repair orders
// and time entries.
type ActivityLog struct {
	ID         string       `db:"id" json:"id"`
	WorkshopID string       `db:"workshop_id" json:"workshop_id"`
	EntityType string       `db:"entity_type" json:"entity_type"`
	EntityID   string       `db:"entity_id" json:"entity_id"`
	UserID     *string      `db:"user_id" json:"user_id,omitempty"`
	Changes    FieldChanges `db:"changes" json:"changes"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
}
