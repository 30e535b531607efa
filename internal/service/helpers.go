package service

import (
	"errors"

	"github.com/motoserwis/warsztat-api/internal/models"
	"github.com/motoserwis/warsztat-api/internal/repository"
	appErrors "github.com/motoserwis/warsztat-api/pkg/errors"
	"github.com/motoserwis/warsztat-api/pkg/validation"
)

// validateListParams rejects sort columns outside the entity whitelist and
// order values other than asc/desc. Invalid values are a validation failure,
// never a silent fallback.
func validateListParams(sortBy, sortOrder string, whitelist map[string]string) *appErrors.Error {
	fields := make(map[string]string)
	if sortBy != "" {
		if _, ok := whitelist[sortBy]; !ok {
			fields["sort"] = validation.InvalidChoice("sort")
		}
	}
	if !models.SortDirectionValid(sortOrder) {
		fields["order"] = validation.InvalidOrder()
	}
	if len(fields) > 0 {
		return appErrors.Validation(fields)
	}
	return nil
}

const msgDataConflict = "Operacja narusza spójność danych."

// constraintFields maps database constraint names to the request field they
// guard. Existence pre-checks catch most duplicates; this path handles the
// losers of a concurrent write race.
var constraintFields = map[string]string{
	"users_email_unique":                  "email",
	"clients_email_unique":                "email",
	"vehicles_vin_unique":                 "vin",
	"vehicles_client_id_fkey":             "client_id",
	"repair_orders_vehicle_id_fkey":       "vehicle_id",
	"time_entries_mechanic_id_fkey":       "mechanic_id",
	"time_entries_repair_order_id_fkey":   "repair_order_id",
	"internal_notes_repair_order_id_fkey": "repair_order_id",
}

// constraintViolation maps a repository constraint error to the same field
// error the pre-check would have produced. Returns nil when err carries no
// constraint violation.
func constraintViolation(err error) *appErrors.Error {
	var ce *repository.ConstraintError
	if !errors.As(err, &ce) {
		return nil
	}
	field, ok := constraintFields[ce.Constraint]
	if !ok {
		return appErrors.Clone(appErrors.ErrConflict, msgDataConflict)
	}
	if ce.Unique {
		return appErrors.FieldValidation(field, validation.Taken(field))
	}
	return appErrors.FieldValidation(field, validation.InvalidChoice(field))
}

func buildPagination(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
