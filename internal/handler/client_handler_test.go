package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motoserwis/warsztat-api/internal/middleware"
	"github.com/motoserwis/warsztat-api/internal/models"
	"github.com/motoserwis/warsztat-api/internal/service"
	"github.com/motoserwis/warsztat-api/pkg/response"
)

type clientRepoMock struct {
	clients     []models.Client
	total       int
	byID        map[string]*models.Client
	takenEmails map[string]bool
	listErr     error
	lastFilter  models.ClientFilter
	created     *models.Client
}

func (m *clientRepoMock) List(ctx context.Context, workshopID string, filter models.ClientFilter) ([]models.Client, int, error) {
	m.lastFilter = filter
	return m.clients, m.total, m.listErr
}

func (m *clientRepoMock) FindByID(ctx context.Context, workshopID, id string) (*models.Client, error) {
	if client, ok := m.byID[workshopID+"/"+id]; ok {
		return client, nil
	}
	return nil, sql.ErrNoRows
}

func (m *clientRepoMock) ExistsByEmail(ctx context.Context, workshopID, email, excludeID string) (bool, error) {
	return m.takenEmails[workshopID+"/"+email], nil
}

func (m *clientRepoMock) Create(ctx context.Context, client *models.Client) error {
	client.ID = "c-new"
	m.created = client
	return nil
}

func (m *clientRepoMock) Update(ctx context.Context, client *models.Client) error {
	return nil
}

func (m *clientRepoMock) SoftDelete(ctx context.Context, workshopID, id string) (bool, error) {
	_, ok := m.byID[workshopID+"/"+id]
	return ok, nil
}

func officeContext(w *httptest.ResponseRecorder) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-1", WorkshopID: "w-1", Role: models.RoleOffice})
	return c
}

func TestClientHandlerListPassesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &clientRepoMock{clients: []models.Client{{ID: "c-1", WorkshopID: "w-1"}}, total: 1}
	h := NewClientHandler(service.NewClientService(repo, nil, nil))

	w := httptest.NewRecorder()
	c := officeContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/clients?search=kowal&sort=last_name&order=desc&page=2&limit=10", nil)

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "kowal", repo.lastFilter.Search)
	assert.Equal(t, "last_name", repo.lastFilter.SortBy)
	assert.Equal(t, "desc", repo.lastFilter.SortOrder)
	assert.Equal(t, 2, repo.lastFilter.Page)
	assert.Equal(t, 10, repo.lastFilter.PageSize)
}

func TestClientHandlerListRejectsUnknownSort(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewClientHandler(service.NewClientService(&clientRepoMock{}, nil, nil))

	w := httptest.NewRecorder()
	c := officeContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/clients?sort=phone", nil)

	h.List(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Contains(t, envelope.Error.Fields, "sort")
}

func TestClientHandlerCreateValidationFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewClientHandler(service.NewClientService(&clientRepoMock{}, nil, nil))

	payload, _ := json.Marshal(service.CreateClientRequest{FirstName: "Jan"})
	w := httptest.NewRecorder()
	c := officeContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/clients", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Create(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "Pole last_name jest wymagane.", envelope.Error.Fields["last_name"])
}

func TestClientHandlerCreateBindsTenant(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &clientRepoMock{}
	h := NewClientHandler(service.NewClientService(repo, nil, nil))

	payload, _ := json.Marshal(service.CreateClientRequest{FirstName: "Jan", LastName: "Kowalski"})
	w := httptest.NewRecorder()
	c := officeContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/clients", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, repo.created)
	assert.Equal(t, "w-1", repo.created.WorkshopID)
}

func TestClientHandlerCreateRejectsDuplicateEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &clientRepoMock{takenEmails: map[string]bool{"w-1/jan@poczta.pl": true}}
	h := NewClientHandler(service.NewClientService(repo, nil, nil))

	payload, _ := json.Marshal(service.CreateClientRequest{FirstName: "Jan", LastName: "Kowalski", Email: "jan@poczta.pl"})
	w := httptest.NewRecorder()
	c := officeContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/clients", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Create(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "Wartość pola email jest już zajęta.", envelope.Error.Fields["email"])
	assert.Nil(t, repo.created)
}

func TestClientHandlerGetMissingClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewClientHandler(service.NewClientService(&clientRepoMock{}, nil, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/clients/c-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "c-1"}}

	h.Get(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestClientHandlerDeleteIdempotentNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &clientRepoMock{byID: map[string]*models.Client{}}
	h := NewClientHandler(service.NewClientService(repo, nil, nil))

	w := httptest.NewRecorder()
	c := officeContext(w)
	c.Request, _ = http.NewRequest(http.MethodDelete, "/clients/c-gone", nil)
	c.Params = gin.Params{{Key: "id", Value: "c-gone"}}

	h.Delete(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}
