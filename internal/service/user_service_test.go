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

type userRepoMock struct {
	users      map[string]*models.User
	emailTaken bool
	revoked    []string
}

func (m *userRepoMock) List(ctx context.Context, workshopID string, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range m.users {
		if u.WorkshopID == workshopID {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (m *userRepoMock) FindByID(ctx context.Context, workshopID, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok || u.WorkshopID != workshopID {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *userRepoMock) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	return m.emailTaken, nil
}

func (m *userRepoMock) Create(ctx context.Context, user *models.User) error {
	user.ID = "u-new"
	m.users[user.ID] = user
	return nil
}

func (m *userRepoMock) Update(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *userRepoMock) SoftDelete(ctx context.Context, workshopID, id string) (bool, error) {
	u, ok := m.users[id]
	if !ok || u.WorkshopID != workshopID {
		return false, nil
	}
	delete(m.users, id)
	return true, nil
}

func (m *userRepoMock) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revoked = append(m.revoked, userID)
	return nil
}

func newUserFixture() (*UserService, *userRepoMock) {
	repo := &userRepoMock{users: map[string]*models.User{
		"u1": {ID: "u1", WorkshopID: "w1", Email: "szef@warsztat.pl", Role: models.RoleOwner, Active: true},
		"u2": {ID: "u2", WorkshopID: "w1", Email: "biuro@warsztat.pl", Role: models.RoleOffice, Active: true},
	}}
	return NewUserService(repo, validation.New(), zap.NewNop()), repo
}

func TestUserCreateRejectsTakenEmail(t *testing.T) {
	svc, repo := newUserFixture()
	repo.emailTaken = true

	_, err := svc.Create(context.Background(), tenant.Context{WorkshopID: "w1", UserID: "u1"}, CreateUserRequest{
		Email:     "szef@warsztat.pl",
		Password:  "tajnehaslo1",
		FirstName: "Anna",
		LastName:  "Nowak",
		Role:      "OFFICE",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	assert.Equal(t, "Wartość pola email jest już zajęta.", appErr.Fields["email"])
}

func TestUserCreateRejectsUnknownRole(t *testing.T) {
	svc, _ := newUserFixture()

	_, err := svc.Create(context.Background(), tenant.Context{WorkshopID: "w1", UserID: "u1"}, CreateUserRequest{
		Email:     "nowy@warsztat.pl",
		Password:  "tajnehaslo1",
		FirstName: "Anna",
		LastName:  "Nowak",
		Role:      "ADMIN",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "Wybrana wartość pola role jest nieprawidłowa.", appErr.Fields["role"])
}

func TestUserCreateHashesPassword(t *testing.T) {
	svc, repo := newUserFixture()

	user, err := svc.Create(context.Background(), tenant.Context{WorkshopID: "w1", UserID: "u1"}, CreateUserRequest{
		Email:     "nowy@warsztat.pl",
		Password:  "tajnehaslo1",
		FirstName: "Anna",
		LastName:  "Nowak",
		Role:      "MECHANIC",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "tajnehaslo1", user.PasswordHash)
	assert.NotEmpty(t, repo.users[user.ID].PasswordHash)
	assert.True(t, user.Active)
}

func TestUserDeleteSelfIsConflict(t *testing.T) {
	svc, repo := newUserFixture()

	err := svc.Delete(context.Background(), tenant.Context{WorkshopID: "w1", UserID: "u1"}, "u1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, "Nie możesz usunąć własnego konta.", appErr.Message)
	assert.Contains(t, repo.users, "u1")
}

func TestUserDeleteRevokesRefreshTokens(t *testing.T) {
	svc, repo := newUserFixture()

	err := svc.Delete(context.Background(), tenant.Context{WorkshopID: "w1", UserID: "u1"}, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, repo.revoked)
}
