package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/karimsaleh/freshbasket-backend/internal/cart"
	pkgAuth "github.com/karimsaleh/freshbasket-backend/pkg/auth"
	"github.com/karimsaleh/freshbasket-backend/pkg/config"
	"github.com/karimsaleh/freshbasket-backend/pkg/db/models"
	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
	apperrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
	"github.com/karimsaleh/freshbasket-backend/pkg/security"
)

type fakeUserRepo struct {
	user      *models.User
	lastLogin *time.Time
}

func (f *fakeUserRepo) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	if f.user == nil || f.user.Phone != phone {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *f.user
	return &clone, nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.lastLogin = &at
	return nil
}

type fakeCartMerger struct {
	merged []string
}

func (f *fakeCartMerger) MergeOnLogin(ctx context.Context, sessionToken string, userID uuid.UUID) (*cart.Snapshot, error) {
	f.merged = append(f.merged, sessionToken)
	return &cart.Snapshot{}, nil
}

func authJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "freshbasket",
		ExpirationMinutes: 30,
	}
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	require.NoError(t, err)
	return hash
}

func activeCustomer(t *testing.T, password string) *models.User {
	t.Helper()
	return &models.User{
		ID:           uuid.New(),
		Phone:        "01012345678",
		PasswordHash: mustHashPassword(t, password),
		FullName:     "Mona Hassan",
		Role:         enums.MemberRoleCustomer,
		IsActive:     true,
	}
}

func buildTestService(t *testing.T, user *models.User) (Service, *fakeUserRepo, *fakeCartMerger) {
	t.Helper()
	repo := &fakeUserRepo{user: user}
	merger := &fakeCartMerger{}
	svc, err := NewService(ServiceParams{
		UserRepo:   repo,
		CartMerger: merger,
		JWTConfig:  authJWTConfig(),
	})
	require.NoError(t, err)
	return svc, repo, merger
}

func TestLoginIssuesCustomerToken(t *testing.T) {
	user := activeCustomer(t, "correct horse")
	svc, repo, merger := buildTestService(t, user)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Phone:    "0101 234 5678",
		Password: "correct horse",
	})
	require.NoError(t, err)

	claims, err := pkgAuth.ParseAccessToken(authJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	require.NotNil(t, claims.UserID)
	assert.Equal(t, user.ID, *claims.UserID)
	assert.Equal(t, enums.MemberRoleCustomer, claims.Role)
	assert.False(t, claims.IsGuest())
	assert.NotNil(t, repo.lastLogin)
	assert.Empty(t, merger.merged)
}

func TestLoginMergesGuestCart(t *testing.T) {
	user := activeCustomer(t, "correct horse")
	svc, _, merger := buildTestService(t, user)

	_, err := svc.Login(context.Background(), LoginRequest{
		Phone:        "01012345678",
		Password:     "correct horse",
		SessionToken: "guest-session-1",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"guest-session-1"}, merger.merged)
}

func TestLoginCountryCodeNormalized(t *testing.T) {
	user := activeCustomer(t, "correct horse")
	svc, _, _ := buildTestService(t, user)

	_, err := svc.Login(context.Background(), LoginRequest{
		Phone:    "+20 10 1234 5678",
		Password: "correct horse",
	})
	require.NoError(t, err)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	user := activeCustomer(t, "correct horse")
	svc, _, merger := buildTestService(t, user)

	_, err := svc.Login(context.Background(), LoginRequest{
		Phone:    "01012345678",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.As(err).Code())
	assert.Empty(t, merger.merged)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	user := activeCustomer(t, "correct horse")
	user.IsActive = false
	svc, _, _ := buildTestService(t, user)

	_, err := svc.Login(context.Background(), LoginRequest{
		Phone:    "01012345678",
		Password: "correct horse",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.As(err).Code())
}

func TestAdminLoginRequiresAdminRole(t *testing.T) {
	user := activeCustomer(t, "correct horse")
	svc, _, _ := buildTestService(t, user)

	_, err := svc.AdminLogin(context.Background(), LoginRequest{
		Phone:    "01012345678",
		Password: "correct horse",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.As(err).Code())

	user.Role = enums.MemberRoleAdmin
	resp, err := svc.AdminLogin(context.Background(), LoginRequest{
		Phone:    "01012345678",
		Password: "correct horse",
	})
	require.NoError(t, err)

	claims, err := pkgAuth.ParseAccessToken(authJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, enums.MemberRoleAdmin, claims.Role)
}

func TestGuestSessionMintsAnonymousToken(t *testing.T) {
	svc, _, _ := buildTestService(t, nil)

	resp, err := svc.GuestSession(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, resp.SessionToken)

	claims, err := pkgAuth.ParseAccessToken(authJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsGuest())
	assert.Nil(t, claims.UserID)
	assert.Equal(t, resp.SessionToken, claims.SessionToken)
}
