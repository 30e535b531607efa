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

type noteRepoMock struct {
	notes map[string]*models.InternalNote
}

func (m *noteRepoMock) ListByRepairOrder(ctx context.Context, workshopID, orderID string) ([]models.InternalNoteDetail, error) {
	var out []models.InternalNoteDetail
	for _, n := range m.notes {
		if n.WorkshopID == workshopID && n.RepairOrderID == orderID {
			out = append(out, models.InternalNoteDetail{InternalNote: *n})
		}
	}
	return out, nil
}

func (m *noteRepoMock) FindByID(ctx context.Context, workshopID, id string) (*models.InternalNote, error) {
	n, ok := m.notes[id]
	if !ok || n.WorkshopID != workshopID {
		return nil, sql.ErrNoRows
	}
	return n, nil
}

func (m *noteRepoMock) Create(ctx context.Context, note *models.InternalNote) error {
	note.ID = "n-new"
	m.notes[note.ID] = note
	return nil
}

func (m *noteRepoMock) Update(ctx context.Context, note *models.InternalNote) error {
	m.notes[note.ID] = note
	return nil
}

func (m *noteRepoMock) Delete(ctx context.Context, workshopID, id string) (bool, error) {
	n, ok := m.notes[id]
	if !ok || n.WorkshopID != workshopID {
		return false, nil
	}
	delete(m.notes, id)
	return true, nil
}

type noteUserLookupMock struct {
	users map[string]*models.User
}

func (m *noteUserLookupMock) FindByID(ctx context.Context, workshopID, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok || u.WorkshopID != workshopID {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

type noteMechanicLookupMock struct {
	mechanics map[string]*models.Mechanic
}

func (m *noteMechanicLookupMock) FindByID(ctx context.Context, workshopID, id string) (*models.Mechanic, error) {
	mech, ok := m.mechanics[id]
	if !ok || mech.WorkshopID != workshopID {
		return nil, sql.ErrNoRows
	}
	return mech, nil
}

func newNoteFixture() (*InternalNoteService, *noteRepoMock) {
	repo := &noteRepoMock{notes: map[string]*models.InternalNote{
		"n1": {ID: "n1", WorkshopID: "w1", RepairOrderID: "ro1", AuthorType: models.NoteAuthorUser, AuthorID: "u1", Content: "Czeka na części."},
	}}
	orders := &vehicleOrderLookupStub{}
	users := &noteUserLookupMock{users: map[string]*models.User{
		"3f0d8f4e-9a7e-4c0f-8c8e-111111111111": {ID: "3f0d8f4e-9a7e-4c0f-8c8e-111111111111", WorkshopID: "w1"},
	}}
	mechanics := &noteMechanicLookupMock{mechanics: map[string]*models.Mechanic{
		"3f0d8f4e-9a7e-4c0f-8c8e-222222222222": {ID: "3f0d8f4e-9a7e-4c0f-8c8e-222222222222", WorkshopID: "w1"},
	}}
	return NewInternalNoteService(repo, orders, users, mechanics, validation.New(), zap.NewNop()), repo
}

// vehicleOrderLookupStub resolves every order inside workshop w1.
type vehicleOrderLookupStub struct{}

func (s *vehicleOrderLookupStub) FindByID(ctx context.Context, workshopID, id string) (*models.RepairOrderDetail, error) {
	if workshopID != "w1" {
		return nil, sql.ErrNoRows
	}
	return &models.RepairOrderDetail{RepairOrder: models.RepairOrder{ID: id, WorkshopID: workshopID}}, nil
}

func TestNoteCreateDispatchesAuthorByType(t *testing.T) {
	svc, repo := newNoteFixture()
	tc := tenant.Context{WorkshopID: "w1", UserID: "u1"}

	note, err := svc.Create(context.Background(), tc, "ro1", CreateInternalNoteRequest{
		AuthorType: "MECHANIC",
		AuthorID:   "3f0d8f4e-9a7e-4c0f-8c8e-222222222222",
		Content:    "Wymieniono klocki.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.NoteAuthorMechanic, note.AuthorType)
	assert.Contains(t, repo.notes, note.ID)
}

func TestNoteCreateRejectsUnknownAuthorType(t *testing.T) {
	svc, _ := newNoteFixture()
	tc := tenant.Context{WorkshopID: "w1", UserID: "u1"}

	_, err := svc.Create(context.Background(), tc, "ro1", CreateInternalNoteRequest{
		AuthorType: "CLIENT",
		AuthorID:   "3f0d8f4e-9a7e-4c0f-8c8e-222222222222",
		Content:    "notatka",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	assert.Contains(t, appErr.Fields, "author_type")
}

func TestNoteCreateRejectsAuthorFromWrongTable(t *testing.T) {
	svc, _ := newNoteFixture()
	tc := tenant.Context{WorkshopID: "w1", UserID: "u1"}

	// Valid mechanic ID presented as a USER author must not resolve.
	_, err := svc.Create(context.Background(), tc, "ro1", CreateInternalNoteRequest{
		AuthorType: "USER",
		AuthorID:   "3f0d8f4e-9a7e-4c0f-8c8e-222222222222",
		Content:    "notatka",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Contains(t, appErr.Fields, "author_id")
}

func TestNoteUpdateIsNotAuthorGated(t *testing.T) {
	svc, repo := newNoteFixture()
	// A different user than the original author edits the note.
	tc := tenant.Context{WorkshopID: "w1", UserID: "u99", Role: models.RoleOffice}

	note, err := svc.Update(context.Background(), tc, "n1", UpdateInternalNoteRequest{Content: "Części dotarły."})
	require.NoError(t, err)
	assert.Equal(t, "Części dotarły.", note.Content)
	assert.Equal(t, "u1", repo.notes["n1"].AuthorID)
}

func TestNoteDeleteMissIsNotFound(t *testing.T) {
	svc, _ := newNoteFixture()

	err := svc.Delete(context.Background(), tenant.Context{WorkshopID: "w2", UserID: "u1"}, "n1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}
