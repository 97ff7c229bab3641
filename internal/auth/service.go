// Package auth issues access tokens for registered customers, admins,
// and anonymous guest sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karimsaleh/freshbasket-backend/internal/cart"
	"github.com/karimsaleh/freshbasket-backend/internal/users"
	pkgAuth "github.com/karimsaleh/freshbasket-backend/pkg/auth"
	"github.com/karimsaleh/freshbasket-backend/pkg/config"
	"github.com/karimsaleh/freshbasket-backend/pkg/db/models"
	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
	pkgerrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
	"github.com/karimsaleh/freshbasket-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	AdminLogin(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	GuestSession(ctx context.Context) (*GuestSessionResponse, error)
}

type service struct {
	users  userRepository
	carts  cartMerger
	jwtCfg config.JWTConfig
}

type userRepository interface {
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type cartMerger interface {
	MergeOnLogin(ctx context.Context, sessionToken string, userID uuid.UUID) (*cart.Snapshot, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo   userRepository
	CartMerger cartMerger
	JWTConfig  config.JWTConfig
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.CartMerger == nil {
		return nil, fmt.Errorf("cart merger is required")
	}
	return &service{
		users:  params.UserRepo,
		carts:  params.CartMerger,
		jwtCfg: params.JWTConfig,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Phone, req.Password)
	if err != nil {
		return nil, err
	}

	now, err := s.recordLogin(ctx, user)
	if err != nil {
		return nil, err
	}

	// A guest cart carried into login replaces the account cart
	// wholesale.
	if req.SessionToken != "" {
		if _, err := s.carts.MergeOnLogin(ctx, req.SessionToken, user.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "merge guest cart")
		}
	}

	token, err := s.mintToken(user, now)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{AccessToken: token, User: users.FromModel(user)}, nil
}

func (s *service) AdminLogin(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Phone, req.Password)
	if err != nil {
		return nil, err
	}
	if user.Role != enums.MemberRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now, err := s.recordLogin(ctx, user)
	if err != nil {
		return nil, err
	}

	token, err := s.mintToken(user, now)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{AccessToken: token, User: users.FromModel(user)}, nil
}

// GuestSession mints an anonymous token. The session token scopes the
// guest's redis cart; no user row exists until they register.
func (s *service) GuestSession(ctx context.Context) (*GuestSessionResponse, error) {
	sessionToken := uuid.NewString()
	payload := pkgAuth.AccessTokenPayload{
		Role:         enums.MemberRoleCustomer,
		SessionToken: sessionToken,
		JTI:          uuid.NewString(),
	}
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now().UTC(), payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint guest jwt")
	}
	return &GuestSessionResponse{AccessToken: token, SessionToken: sessionToken}, nil
}

func (s *service) authenticate(ctx context.Context, phone, password string) (*models.User, error) {
	input := normalizeLoginPhone(phone)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByPhone(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

func (s *service) recordLogin(ctx context.Context, user *models.User) (time.Time, error) {
	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now
	return now, nil
}

func (s *service) mintToken(user *models.User, now time.Time) (string, error) {
	userID := user.ID
	payload := pkgAuth.AccessTokenPayload{
		UserID: &userID,
		Role:   user.Role,
		Phone:  user.Phone,
		JTI:    uuid.NewString(),
	}
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, payload)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}

// normalizeLoginPhone strips separators so "+20 10 1234 5678" and
// "01012345678" hit the same row when stored in local format.
func normalizeLoginPhone(value string) string {
	digits := make([]rune, 0, len(value))
	for _, r := range strings.TrimSpace(value) {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	phone := string(digits)
	if strings.HasPrefix(phone, "20") && len(phone) == 12 {
		phone = "0" + phone[2:]
	}
	return phone
}
