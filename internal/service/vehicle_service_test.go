package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/motoserwis/warsztat-api/internal/models"
	"github.com/motoserwis/warsztat-api/internal/repository"
	"github.com/motoserwis/warsztat-api/internal/tenant"
	appErrors "github.com/motoserwis/warsztat-api/pkg/errors"
	"github.com/motoserwis/warsztat-api/pkg/validation"
)

type vehicleRepoMock struct {
	vehicles   map[string]*models.VehicleDetail
	createErr  error
	openOrders int
	deleted    []string
}

func (m *vehicleRepoMock) List(ctx context.Context, workshopID string, filter models.VehicleFilter) ([]models.VehicleDetail, int, error) {
	var out []models.VehicleDetail
	for _, v := range m.vehicles {
		if v.WorkshopID == workshopID {
			out = append(out, *v)
		}
	}
	return out, len(out), nil
}

func (m *vehicleRepoMock) FindByID(ctx context.Context, workshopID, id string) (*models.VehicleDetail, error) {
	v, ok := m.vehicles[id]
	if !ok || v.WorkshopID != workshopID {
		return nil, sql.ErrNoRows
	}
	return v, nil
}

func (m *vehicleRepoMock) ExistsByVIN(ctx context.Context, workshopID, vin, excludeID string) (bool, error) {
	for _, v := range m.vehicles {
		if v.WorkshopID == workshopID && strings.EqualFold(v.VIN, vin) && v.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *vehicleRepoMock) CountOpenRepairOrders(ctx context.Context, workshopID, vehicleID string) (int, error) {
	return m.openOrders, nil
}

func (m *vehicleRepoMock) Create(ctx context.Context, vehicle *models.Vehicle) error {
	if m.createErr != nil {
		return m.createErr
	}
	vehicle.ID = fmt.Sprintf("v-new-%d", len(m.vehicles))
	m.vehicles[vehicle.ID] = &models.VehicleDetail{Vehicle: *vehicle}
	return nil
}

func (m *vehicleRepoMock) Update(ctx context.Context, vehicle *models.Vehicle) error {
	m.vehicles[vehicle.ID] = &models.VehicleDetail{Vehicle: *vehicle}
	return nil
}

func (m *vehicleRepoMock) SoftDelete(ctx context.Context, workshopID, id string) (bool, error) {
	v, ok := m.vehicles[id]
	if !ok || v.WorkshopID != workshopID {
		return false, nil
	}
	delete(m.vehicles, id)
	m.deleted = append(m.deleted, id)
	return true, nil
}

type clientLookupMock struct {
	clients map[string]*models.Client
}

func (m *clientLookupMock) FindByID(ctx context.Context, workshopID, id string) (*models.Client, error) {
	c, ok := m.clients[id]
	if !ok || c.WorkshopID != workshopID {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

func newVehicleFixture() (*VehicleService, *vehicleRepoMock) {
	repo := &vehicleRepoMock{vehicles: map[string]*models.VehicleDetail{
		"v1": {Vehicle: models.Vehicle{ID: "v1", WorkshopID: "w1", ClientID: "c1", Make: "Toyota", Model: "Corolla", Year: 2015, VIN: "JT2BG22K123456789"}},
	}}
	clients := &clientLookupMock{clients: map[string]*models.Client{
		"c1": {ID: "c1", WorkshopID: "w1"},
		"c2": {ID: "c2", WorkshopID: "w2"},
	}}
	return NewVehicleService(repo, clients, validation.New(), zap.NewNop()), repo
}

func TestVehicleGetOtherWorkshopIsNotFound(t *testing.T) {
	svc, _ := newVehicleFixture()

	_, err := svc.Get(context.Background(), tenant.Context{WorkshopID: "w2", UserID: "u1"}, "v1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestVehicleCreateRequiresFields(t *testing.T) {
	svc, _ := newVehicleFixture()

	_, err := svc.Create(context.Background(), tenant.Context{WorkshopID: "w1", UserID: "u1"}, CreateVehicleRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	assert.Equal(t, "Pole make jest wymagane.", appErr.Fields["make"])
	assert.Equal(t, "Pole model jest wymagane.", appErr.Fields["model"])
	assert.Equal(t, "Pole year jest wymagane.", appErr.Fields["year"])
}

func TestVehicleCreateRejectsYearOutOfRange(t *testing.T) {
	svc, _ := newVehicleFixture()
	year := 1850

	_, err := svc.Create(context.Background(), tenant.Context{WorkshopID: "w1", UserID: "u1"}, CreateVehicleRequest{
		ClientID: "c1",
		Make:     "Skoda",
		Model:    "Octavia",
		Year:     &year,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	assert.Equal(t, "Pole year musi być nie mniejsze niż 1900.", appErr.Fields["year"])
}

func TestVehicleCreateRejectsForeignClient(t *testing.T) {
	svc, _ := newVehicleFixture()
	year := 2018

	_, err := svc.Create(context.Background(), tenant.Context{WorkshopID: "w1", UserID: "u1"}, CreateVehicleRequest{
		ClientID: "7b5e1a38-63e9-4a9d-9a75-2f1a8cf0f6b2",
		Make:     "Skoda",
		Model:    "Octavia",
		Year:     &year,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	assert.Contains(t, appErr.Fields, "client_id")
}

func TestVehicleCreateRejectsDuplicateVIN(t *testing.T) {
	svc, _ := newVehicleFixture()
	year := 2018

	_, err := svc.Create(context.Background(), tenant.Context{WorkshopID: "w1", UserID: "u1"}, CreateVehicleRequest{
		ClientID: "c1",
		Make:     "Skoda",
		Model:    "Octavia",
		Year:     &year,
		VIN:      "JT2BG22K123456789",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	assert.Equal(t, "Wartość pola vin jest już zajęta.", appErr.Fields["vin"])
}

func TestVehicleSameVINAllowedAcrossWorkshops(t *testing.T) {
	svc, repo := newVehicleFixture()
	year := 2018

	// v1 in w1 already carries this VIN; the same VIN in w2 must be free.
	created, err := svc.Create(context.Background(), tenant.Context{WorkshopID: "w2", UserID: "u2"}, CreateVehicleRequest{
		ClientID: "c2",
		Make:     "Skoda",
		Model:    "Octavia",
		Year:     &year,
		VIN:      "JT2BG22K123456789",
	})
	require.NoError(t, err)
	assert.Equal(t, "w2", created.WorkshopID)
	assert.Equal(t, "JT2BG22K123456789", created.VIN)
	assert.Equal(t, "JT2BG22K123456789", repo.vehicles["v1"].VIN)
}

func TestVehicleCreateMapsConstraintRaceToFieldError(t *testing.T) {
	svc, repo := newVehicleFixture()
	repo.createErr = &repository.ConstraintError{Constraint: "vehicles_vin_unique", Unique: true}
	year := 2018

	// The VIN pre-check passes but a concurrent writer wins the insert.
	_, err := svc.Create(context.Background(), tenant.Context{WorkshopID: "w1", UserID: "u1"}, CreateVehicleRequest{
		ClientID: "c1",
		Make:     "Skoda",
		Model:    "Octavia",
		Year:     &year,
		VIN:      "WVWZZZ1JZ3W386752",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	assert.Equal(t, "Wartość pola vin jest już zajęta.", appErr.Fields["vin"])
}

func TestVehicleDeleteBlockedByOpenOrders(t *testing.T) {
	svc, repo := newVehicleFixture()
	repo.openOrders = 2

	err := svc.Delete(context.Background(), tenant.Context{WorkshopID: "w1", UserID: "u1"}, "v1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, "Nie można usunąć pojazdu, który ma aktywne zlecenia.", appErr.Message)
	assert.Empty(t, repo.deleted)
}

func TestVehicleListRejectsUnknownSort(t *testing.T) {
	svc, _ := newVehicleFixture()

	_, _, err := svc.List(context.Background(), tenant.Context{WorkshopID: "w1", UserID: "u1"}, models.VehicleFilter{SortBy: "vin"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	assert.Contains(t, appErr.Fields, "sort")
}

func TestVehicleListRejectsBadOrder(t *testing.T) {
	svc, _ := newVehicleFixture()

	_, _, err := svc.List(context.Background(), tenant.Context{WorkshopID: "w1", UserID: "u1"}, models.VehicleFilter{SortOrder: "sideways"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "Pole order musi mieć wartość asc lub desc.", appErr.Fields["order"])
}
