package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/motoserwis/warsztat-api/internal/models"
	"github.com/motoserwis/warsztat-api/internal/tenant"
	appErrors "github.com/motoserwis/warsztat-api/pkg/errors"
	"github.com/motoserwis/warsztat-api/pkg/validation"
)

type repairOrderRepoMock struct {
	orders      map[string]*models.RepairOrderDetail
	timeEntries int
	lastFilter  models.RepairOrderFilter
}

func (m *repairOrderRepoMock) List(ctx context.Context, workshopID string, filter models.RepairOrderFilter) ([]models.RepairOrderDetail, int, error) {
	m.lastFilter = filter
	var out []models.RepairOrderDetail
	for _, o := range m.orders {
		if o.WorkshopID == workshopID {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (m *repairOrderRepoMock) FindByID(ctx context.Context, workshopID, id string) (*models.RepairOrderDetail, error) {
	o, ok := m.orders[id]
	if !ok || o.WorkshopID != workshopID {
		return nil, sql.ErrNoRows
	}
	copied := *o
	return &copied, nil
}

func (m *repairOrderRepoMock) CountTimeEntries(ctx context.Context, workshopID, orderID string) (int, error) {
	return m.timeEntries, nil
}

func (m *repairOrderRepoMock) Create(ctx context.Context, order *models.RepairOrder) error {
	order.ID = "ro-new"
	m.orders[order.ID] = &models.RepairOrderDetail{RepairOrder: *order}
	return nil
}

func (m *repairOrderRepoMock) Update(ctx context.Context, order *models.RepairOrder) error {
	m.orders[order.ID] = &models.RepairOrderDetail{RepairOrder: *order}
	return nil
}

func (m *repairOrderRepoMock) SoftDelete(ctx context.Context, workshopID, id string) (bool, error) {
	o, ok := m.orders[id]
	if !ok || o.WorkshopID != workshopID {
		return false, nil
	}
	delete(m.orders, id)
	return true, nil
}

type vehicleLookupMock struct {
	vehicles map[string]*models.VehicleDetail
}

func (m *vehicleLookupMock) FindByID(ctx context.Context, workshopID, id string) (*models.VehicleDetail, error) {
	v, ok := m.vehicles[id]
	if !ok || v.WorkshopID != workshopID {
		return nil, sql.ErrNoRows
	}
	return v, nil
}

type activityMock struct {
	entries []*models.ActivityLog
}

func (m *activityMock) Append(ctx context.Context, entry *models.ActivityLog) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *activityMock) ListByEntity(ctx context.Context, workshopID, entityType, entityID string) ([]models.ActivityLog, error) {
	var out []models.ActivityLog
	for _, e := range m.entries {
		if e.WorkshopID == workshopID && e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func newRepairOrderFixture() (*RepairOrderService, *repairOrderRepoMock, *activityMock) {
	repo := &repairOrderRepoMock{orders: map[string]*models.RepairOrderDetail{
		"ro1": {RepairOrder: models.RepairOrder{ID: "ro1", WorkshopID: "w1", VehicleID: "v1", Status: models.StatusNew, ProblemDescription: "stuka"}},
	}}
	vehicles := &vehicleLookupMock{vehicles: map[string]*models.VehicleDetail{
		"v1": {Vehicle: models.Vehicle{ID: "v1", WorkshopID: "w1"}},
	}}
	activity := &activityMock{}
	return NewRepairOrderService(repo, vehicles, activity, validation.New(), zap.NewNop()), repo, activity
}

func TestRepairOrderStatusUpdateRecordsActivity(t *testing.T) {
	svc, _, activity := newRepairOrderFixture()
	tc := tenant.Context{WorkshopID: "w1", UserID: "u1"}

	detail, err := svc.UpdateStatus(context.Background(), tc, "ro1", UpdateRepairOrderStatusRequest{Status: "IN_PROGRESS"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, detail.Status)

	require.Len(t, activity.entries, 1)
	change, ok := activity.entries[0].Changes["status"]
	require.True(t, ok)
	assert.Equal(t, "NEW", change.Old)
	assert.Equal(t, "IN_PROGRESS", change.New)
	require.NotNil(t, activity.entries[0].UserID)
	assert.Equal(t, "u1", *activity.entries[0].UserID)
}

func TestRepairOrderStatusUpdateRejectsUnknownValue(t *testing.T) {
	svc, _, _ := newRepairOrderFixture()
	tc := tenant.Context{WorkshopID: "w1", UserID: "u1"}

	_, err := svc.UpdateStatus(context.Background(), tc, "ro1", UpdateRepairOrderStatusRequest{Status: "PAUSED"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	assert.Equal(t, "Wybrana wartość pola status jest nieprawidłowa.", appErr.Fields["status"])
}

func TestRepairOrderStatusMayMoveBackwards(t *testing.T) {
	svc, repo, _ := newRepairOrderFixture()
	repo.orders["ro1"].Status = models.StatusReadyForPickup
	tc := tenant.Context{WorkshopID: "w1", UserID: "u1"}

	detail, err := svc.UpdateStatus(context.Background(), tc, "ro1", UpdateRepairOrderStatusRequest{Status: "DIAGNOSIS"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDiagnosis, detail.Status)
}

func TestRepairOrderCloseStampsFinishedAt(t *testing.T) {
	svc, repo, _ := newRepairOrderFixture()
	tc := tenant.Context{WorkshopID: "w1", UserID: "u1"}

	detail, err := svc.UpdateStatus(context.Background(), tc, "ro1", UpdateRepairOrderStatusRequest{Status: "CLOSED"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, detail.Status)
	assert.NotNil(t, repo.orders["ro1"].FinishedAt)
}

func TestRepairOrderDeleteBlockedByTimeEntries(t *testing.T) {
	svc, repo, _ := newRepairOrderFixture()
	repo.timeEntries = 3
	tc := tenant.Context{WorkshopID: "w1", UserID: "u1"}

	err := svc.Delete(context.Background(), tc, "ro1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, "Nie można usunąć zlecenia, które ma zarejestrowany czas pracy.", appErr.Message)
	assert.Contains(t, repo.orders, "ro1")
}

func TestRepairOrderMechanicViewExcludesClosed(t *testing.T) {
	svc, repo, _ := newRepairOrderFixture()
	tc := tenant.Context{WorkshopID: "w1", UserID: "u1"}

	status := models.StatusClosed
	_, _, err := svc.ListOpenForMechanics(context.Background(), tc, models.RepairOrderFilter{Status: &status})
	require.NoError(t, err)
	assert.True(t, repo.lastFilter.ExcludeClosed)
	assert.Nil(t, repo.lastFilter.Status)
}

func TestRepairOrderCrossTenantLookupIsNotFound(t *testing.T) {
	svc, _, _ := newRepairOrderFixture()

	_, err := svc.Get(context.Background(), tenant.Context{WorkshopID: "w2", UserID: "u9"}, "ro1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}
