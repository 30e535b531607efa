package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/motoserwis/warsztat-api/internal/models"
	"github.com/motoserwis/warsztat-api/pkg/config"
	appErrors "github.com/motoserwis/warsztat-api/pkg/errors"
	"github.com/motoserwis/warsztat-api/pkg/validation"
)

type authRepoMock struct {
	user   *models.User
	tokens map[string]*models.RefreshToken
}

func (m *authRepoMock) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.user == nil || m.user.Email != email {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func (m *authRepoMock) FindByID(ctx context.Context, workshopID, id string) (*models.User, error) {
	if m.user == nil || m.user.ID != id || m.user.WorkshopID != workshopID {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func (m *authRepoMock) FindByIDGlobal(ctx context.Context, id string) (*models.User, error) {
	if m.user == nil || m.user.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func (m *authRepoMock) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error { return nil }

func (m *authRepoMock) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	m.user.PasswordHash = hash
	return nil
}

func (m *authRepoMock) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *authRepoMock) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := m.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stored, nil
}

func (m *authRepoMock) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, t := range m.tokens {
		if t.ID == id {
			t.Revoked = true
		}
	}
	return nil
}

func (m *authRepoMock) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *authRepoMock) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("tajnehaslo1"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &authRepoMock{
		user: &models.User{
			ID:           "u1",
			WorkshopID:   "w1",
			Email:        "szef@warsztat.pl",
			PasswordHash: string(hash),
			Role:         models.RoleOwner,
			Active:       true,
		},
		tokens: map[string]*models.RefreshToken{},
	}
	cfg := config.JWTConfig{
		Secret:            "test_secret",
		Expiration:        time.Hour,
		RefreshExpiration: 24 * time.Hour,
		Issuer:            "warsztat-api",
	}
	return NewAuthService(repo, cfg, validation.New(), zap.NewNop()), repo
}

func TestLoginIssuesTenantBoundToken(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "szef@warsztat.pl", Password: "tajnehaslo1"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)

	claims, err := svc.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "w1", claims.WorkshopID)
	assert.Equal(t, models.RoleOwner, claims.Role)
}

func TestLoginWrongPasswordIsUnauthorized(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "szef@warsztat.pl", Password: "zlehaslo"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
}

func TestLoginUnknownEmailMatchesWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, errUnknown := svc.Login(context.Background(), models.LoginRequest{Email: "nikt@warsztat.pl", Password: "tajnehaslo1"})
	_, errWrong := svc.Login(context.Background(), models.LoginRequest{Email: "szef@warsztat.pl", Password: "zlehaslo"})
	require.Error(t, errUnknown)
	require.Error(t, errWrong)
	assert.Equal(t, appErrors.FromError(errWrong).Code, appErrors.FromError(errUnknown).Code)
}

func TestLoginInactiveAccountIsForbidden(t *testing.T) {
	svc, repo := newAuthFixture(t)
	repo.user.Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "szef@warsztat.pl", Password: "tajnehaslo1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, repo := newAuthFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "szef@warsztat.pl", Password: "tajnehaslo1"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.True(t, repo.tokens[login.RefreshToken].Revoked)

	// The revoked token cannot be replayed.
	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, appErrors.FromError(err).Status)
}

func TestParseTokenRejectsTampering(t *testing.T) {
	svc, _ := newAuthFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "szef@warsztat.pl", Password: "tajnehaslo1"})
	require.NoError(t, err)

	_, err = svc.ParseToken(login.AccessToken + "x")
	require.Error(t, err)
}
