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

type timeEntryRepoMock struct {
	entries map[string]*models.TimeEntry
}

func (m *timeEntryRepoMock) ListByRepairOrder(ctx context.Context, workshopID, orderID string) ([]models.TimeEntryDetail, error) {
	var out []models.TimeEntryDetail
	for _, e := range m.entries {
		if e.WorkshopID == workshopID && e.RepairOrderID == orderID {
			out = append(out, models.TimeEntryDetail{TimeEntry: *e})
		}
	}
	return out, nil
}

func (m *timeEntryRepoMock) FindByID(ctx context.Context, workshopID, id string) (*models.TimeEntry, error) {
	e, ok := m.entries[id]
	if !ok || e.WorkshopID != workshopID {
		return nil, sql.ErrNoRows
	}
	return e, nil
}

func (m *timeEntryRepoMock) Create(ctx context.Context, entry *models.TimeEntry) error {
	entry.ID = "te-new"
	m.entries[entry.ID] = entry
	return nil
}

func (m *timeEntryRepoMock) Update(ctx context.Context, entry *models.TimeEntry) error {
	m.entries[entry.ID] = entry
	return nil
}

func (m *timeEntryRepoMock) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := m.entries[id]; !ok {
		return false, nil
	}
	delete(m.entries, id)
	return true, nil
}

const testMechanicID = "3f0d8f4e-9a7e-4c0f-8c8e-222222222222"

func newTimeEntryFixture() (*TimeEntryService, *timeEntryRepoMock, *activityMock) {
	repo := &timeEntryRepoMock{entries: map[string]*models.TimeEntry{
		"te1": {ID: "te1", WorkshopID: "w1", RepairOrderID: "ro1", MechanicID: testMechanicID, DurationMinutes: 90, Description: "Wymiana oleju"},
	}}
	mechanics := &noteMechanicLookupMock{mechanics: map[string]*models.Mechanic{
		testMechanicID: {ID: testMechanicID, WorkshopID: "w1"},
	}}
	activity := &activityMock{}
	svc := NewTimeEntryService(repo, &vehicleOrderLookupStub{}, mechanics, activity, validation.New(), zap.NewNop())
	return svc, repo, activity
}

func TestTimeEntryCreateRejectsNegativeDuration(t *testing.T) {
	svc, _, _ := newTimeEntryFixture()
	minutes := -5

	_, err := svc.Create(context.Background(), tenant.Context{WorkshopID: "w1", UserID: "u1"}, "ro1", CreateTimeEntryRequest{
		MechanicID:      testMechanicID,
		DurationMinutes: &minutes,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	assert.Contains(t, appErr.Fields, "duration_minutes")
}

func TestTimeEntryCreateRejectsForeignMechanic(t *testing.T) {
	svc, _, _ := newTimeEntryFixture()
	minutes := 30

	// Well-formed UUID that resolves in no workshop.
	_, err := svc.Create(context.Background(), tenant.Context{WorkshopID: "w1", UserID: "u1"}, "ro1", CreateTimeEntryRequest{
		MechanicID:      "3f0d8f4e-9a7e-4c0f-8c8e-999999999999",
		DurationMinutes: &minutes,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Contains(t, appErr.Fields, "mechanic_id")
}

func TestTimeEntryCreateAppendsActivity(t *testing.T) {
	svc, repo, activity := newTimeEntryFixture()
	minutes := 45

	entry, err := svc.Create(context.Background(), tenant.Context{WorkshopID: "w1", UserID: "u1"}, "ro1", CreateTimeEntryRequest{
		MechanicID:      testMechanicID,
		DurationMinutes: &minutes,
		Description:     "Diagnostyka",
	})
	require.NoError(t, err)
	assert.Contains(t, repo.entries, entry.ID)
	require.Len(t, activity.entries, 1)
	assert.Equal(t, models.ActivityEntityTimeEntry, activity.entries[0].EntityType)
	assert.Equal(t, entry.ID, activity.entries[0].EntityID)
}

func TestTimeEntryUpdateRecordsOnlyDirtyFields(t *testing.T) {
	svc, _, activity := newTimeEntryFixture()
	minutes := 120

	_, err := svc.Update(context.Background(), tenant.Context{WorkshopID: "w1", UserID: "u1"}, "te1", UpdateTimeEntryRequest{
		MechanicID:      testMechanicID,
		DurationMinutes: &minutes,
		Description:     "Wymiana oleju",
	})
	require.NoError(t, err)
	require.Len(t, activity.entries, 1)
	changes := activity.entries[0].Changes
	assert.Contains(t, changes, "duration_minutes")
	assert.NotContains(t, changes, "mechanic_id")
	assert.NotContains(t, changes, "description")
}

func TestTimeEntryDeleteScopedToWorkshop(t *testing.T) {
	svc, repo, _ := newTimeEntryFixture()

	err := svc.Delete(context.Background(), tenant.Context{WorkshopID: "w2", UserID: "u1"}, "te1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Contains(t, repo.entries, "te1")
}
