package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motoserwis/warsztat-api/internal/models"
)

func vehicleRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "workshop_id", "client_id", "make", "model", "year", "vin", "registration_number", "created_at", "updated_at", "deleted_at", "client_first_name", "client_last_name"}).
		AddRow("v1", "w1", "c1", "Toyota", "Corolla", 2019, "JT2BG22K123456789", "WA12345", now, now, nil, "Jan", "Kowalski")
}

func TestVehicleListSearch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVehicleRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM vehicles v JOIN clients c ON c.id = v.client_id").
		WithArgs("w1", "%toyota%").
		WillReturnRows(vehicleRows(now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("w1", "%toyota%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	vehicles, total, err := repo.List(context.Background(), "w1", models.VehicleFilter{Search: "Toyota"})
	require.NoError(t, err)
	assert.Len(t, vehicles, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Corolla", vehicles[0].Model)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleExistsByVINScopedToWorkshop(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVehicleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM vehicles WHERE workshop_id = $1 AND LOWER(vin) = LOWER($2) AND deleted_at IS NULL LIMIT 1")).
		WithArgs("w1", "JT2BG22K123456789").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))

	exists, err := repo.ExistsByVIN(context.Background(), "w1", "JT2BG22K123456789", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleExistsByVINMiss(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVehicleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM vehicles WHERE workshop_id = $1 AND LOWER(vin) = LOWER($2) AND deleted_at IS NULL AND id <> $3 LIMIT 1")).
		WithArgs("w2", "JT2BG22K123456789", "v1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}))

	exists, err := repo.ExistsByVIN(context.Background(), "w2", "JT2BG22K123456789", "v1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleCreateTranslatesUniqueViolation(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVehicleRepository(db)

	mock.ExpectExec("INSERT INTO vehicles").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "vehicles_vin_unique"})

	err := repo.Create(context.Background(), &models.Vehicle{
		WorkshopID: "w1",
		ClientID:   "c1",
		Make:       "Skoda",
		Model:      "Octavia",
		Year:       2018,
		VIN:        "TMBJJ7NE4E0123456",
	})
	require.Error(t, err)
	var ce *ConstraintError
	require.True(t, errors.As(err, &ce))
	assert.True(t, ce.Unique)
	assert.Equal(t, "vehicles_vin_unique", ce.Constraint)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleCreateTranslatesForeignKeyViolation(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVehicleRepository(db)

	mock.ExpectExec("INSERT INTO vehicles").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "vehicles_client_id_fkey"})

	err := repo.Create(context.Background(), &models.Vehicle{
		WorkshopID: "w1",
		ClientID:   "c-gone",
		Make:       "Skoda",
		Model:      "Octavia",
		Year:       2018,
	})
	require.Error(t, err)
	var ce *ConstraintError
	require.True(t, errors.As(err, &ce))
	assert.False(t, ce.Unique)
	assert.Equal(t, "vehicles_client_id_fkey", ce.Constraint)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleCountOpenRepairOrders(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVehicleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM repair_orders WHERE workshop_id = $1 AND vehicle_id = $2 AND status <> $3 AND deleted_at IS NULL")).
		WithArgs("w1", "v1", string(models.StatusClosed)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountOpenRepairOrders(context.Background(), "w1", "v1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
