package models

import (
	"math"
	"time"
)

// TimeEntry records mechanic labour on a repair order.
type TimeEntry struct {
	ID              string    `db:"id" json:"id"`
	WorkshopID      string    `db:"workshop_id" json:"workshop_id"`
	RepairOrderID   string    `db:"repair_order_id" json:"repair_order_id"`
	MechanicID      string    `db:"mechanic_id" json:"mechanic_id"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Description     string    `db:"description" json:"description"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// DurationHours derives hours from minutes rounded to two decimal places.
func (t TimeEntry) DurationHours() float64 {
	return RoundHours(t.DurationMinutes)
}

// RoundHours converts minutes to hours rounded to two decimal places.
func RoundHours(minutes int) float64 {
	return math.Round(float64(minutes)/60.0*100) / 100
}

// TimeEntryDetail joins mechanic identity for display.
type TimeEntryDetail struct {
	TimeEntry
	MechanicFirstName string  `db:"mechanic_first_name" json:"mechanic_first_name"`
	MechanicLastName  string  `db:"mechanic_last_name" json:"mechanic_last_name"`
	DurationHours     float64 `db:"-" json:"duration_hours"`
}
