package models

import "time"

// ReportFilter scopes the time report. A nil date bound means unbounded;
// both nil means all time.
type ReportFilter struct {
	MechanicID string
	StartDate  *time.Time
	EndDate    *time.Time
}

// MechanicReportRow is a per-mechanic aggregation row for the team view.
type MechanicReportRow struct {
	MechanicID   string  `db:"mechanic_id" json:"mechanic_id"`
	FirstName    string  `db:"first_name" json:"first_name"`
	LastName     string  `db:"last_name" json:"last_name"`
	TotalMinutes int     `db:"total_minutes" json:"total_minutes"`
	TotalHours   float64 `db:"-" json:"total_hours"`
	OrdersCount  int     `db:"orders_count" json:"orders_count"`
}

// TimeReport is the aggregation payload for the reports endpoint.
type TimeReport struct {
	TotalMinutes           int                 `json:"total_minutes"`
	TotalHours             float64             `json:"total_hours"`
	OrdersCount            int                 `json:"orders_count"`
	AverageMinutesPerOrder float64             `json:"average_minutes_per_order"`
	Mechanics              []MechanicReportRow `json:"mechanics,omitempty"`
	GeneratedAt            time.Time           `json:"generated_at"`
}
