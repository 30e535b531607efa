package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// SortDirectionValid reports whether the raw direction is asc or desc.
// An empty value is allowed and resolves to the entity default.
func SortDirectionValid(direction string) bool {
	switch direction {
	case "", "asc", "desc", "ASC", "DESC":
		return true
	default:
		return false
	}
}
