package models

import "time"

// RepairOrderStatus is the closed set of repair order states. The set is an
// unordered label space: any status may transition to any other.
type RepairOrderStatus string

const (
	StatusNew             RepairOrderStatus = "NEW"
	StatusDiagnosis       RepairOrderStatus = "DIAGNOSIS"
	StatusAwaitingContact RepairOrderStatus = "AWAITING_CONTACT"
	StatusAwaitingParts   RepairOrderStatus = "AWAITING_PARTS"
	StatusInProgress      RepairOrderStatus = "IN_PROGRESS"
	StatusReadyForPickup  RepairOrderStatus = "READY_FOR_PICKUP"
	StatusClosed          RepairOrderStatus = "CLOSED"
)

// RepairOrderStatuses lists every status in display order.
var RepairOrderStatuses = []RepairOrderStatus{
	StatusNew,
	StatusDiagnosis,
	StatusAwaitingContact,
	StatusAwaitingParts,
	StatusInProgress,
	StatusReadyForPickup,
	StatusClosed,
}

// Valid reports whether the status is one of the known values.
func (s RepairOrderStatus) Valid() bool {
	switch s {
	case StatusNew, StatusDiagnosis, StatusAwaitingContact, StatusAwaitingParts,
		StatusInProgress, StatusReadyForPickup, StatusClosed:
		return true
	default:
		return false
	}
}

// RepairOrder is a single repair job on a vehicle. workshop_id is
// denormalized so tenant scoping never requires a join.
type RepairOrder struct {
	ID                 string            `db:"id" json:"id"`
	WorkshopID         string            `db:"workshop_id" json:"workshop_id"`
	VehicleID          string            `db:"vehicle_id" json:"vehicle_id"`
	Status             RepairOrderStatus `db:"status" json:"status"`
	ProblemDescription string            `db:"problem_description" json:"problem_description"`
	StartedAt          *time.Time        `db:"started_at" json:"started_at,omitempty"`
	FinishedAt         *time.Time        `db:"finished_at" json:"finished_at,omitempty"`
	CreatedAt          time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time         `db:"updated_at" json:"updated_at"`
	DeletedAt          *time.Time        `db:"deleted_at" json:"-"`
}

// RepairOrderDetail joins vehicle/client context and the derived time total.
type RepairOrderDetail struct {
	RepairOrder
	VehicleMake        string `db:"vehicle_make" json:"vehicle_make"`
	VehicleModel       string `db:"vehicle_model" json:"vehicle_model"`
	RegistrationNumber string `db:"registration_number" json:"registration_number"`
	ClientID           string `db:"client_id" json:"client_id"`
	ClientFirstName    string `db:"client_first_name" json:"client_first_name"`
	ClientLastName     string `db:"client_last_name" json:"client_last_name"`
	TotalTimeMinutes   int    `db:"total_time_minutes" json:"total_time_minutes"`

	// Populated on the detail endpoint only.
	TimeEntries []TimeEntryDetail    `db:"-" json:"time_entries,omitempty"`
	Notes       []InternalNoteDetail `db:"-" json:"notes,omitempty"`
}

// RepairOrderFilter captures list parameters for repair orders.
type RepairOrderFilter struct {
	Search        string
	Status        *RepairOrderStatus
	VehicleID     string
	ExcludeClosed bool
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}

// RepairOrderSortColumns whitelists sortable columns for the order list.
var RepairOrderSortColumns = map[string]string{
	"status":     "ro.status",
	"started_at": "ro.started_at",
	"created_at": "ro.created_at",
}

// Attachment is a stored file reference attached to a repair order. The file
// body lives in the storage collaborator; only the reference is persisted.
type Attachment struct {
	ID            string    `db:"id" json:"id"`
	WorkshopID    string    `db:"workshop_id" json:"workshop_id"`
	RepairOrderID string    `db:"repair_order_id" json:"repair_order_id"`
	Name          string    `db:"name" json:"name"`
	Path          string    `db:"path" json:"-"`
	SizeBytes     int64     `db:"size_bytes" json:"size_bytes"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	URL           string    `db:"-" json:"url,omitempty"`
}
