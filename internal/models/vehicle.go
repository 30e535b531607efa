package models

import "time"

// Vehicle belongs to a client within a workshop.
type Vehicle struct {
	ID                 string     `db:"id" json:"id"`
	WorkshopID         string     `db:"workshop_id" json:"workshop_id"`
	ClientID           string     `db:"client_id" json:"client_id"`
	Make               string     `db:"make" json:"make"`
	Model              string     `db:"model" json:"model"`
	Year               int        `db:"year" json:"year"`
	VIN                string     `db:"vin" json:"vin"`
	RegistrationNumber string     `db:"registration_number" json:"registration_number"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt          *time.Time `db:"deleted_at" json:"-"`
}

// VehicleDetail joins owner identity for list and detail views.
type VehicleDetail struct {
	Vehicle
	ClientFirstName string `db:"client_first_name" json:"client_first_name"`
	ClientLastName  string `db:"client_last_name" json:"client_last_name"`
}

// VehicleFilter captures list parameters for vehicles.
type VehicleFilter struct {
	Search    string
	ClientID  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// VehicleSortColumns whitelists sortable columns for the vehicle list.
var VehicleSortColumns = map[string]string{
	"make":       "v.make",
	"model":      "v.model",
	"year":       "v.year",
	"created_at": "v.created_at",
}
