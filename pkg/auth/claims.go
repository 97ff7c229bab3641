package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
// Registered customers and admins carry a UserID; anonymous shoppers
// carry only a SessionToken that scopes their redis cart.
type AccessTokenPayload struct {
	UserID       *uuid.UUID
	Role         enums.MemberRole
	Phone        string
	SessionToken string
	JTI          string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID       *uuid.UUID       `json:"user_id,omitempty"`
	Role         enums.MemberRole `json:"role"`
	Phone        string           `json:"phone,omitempty"`
	SessionToken string           `json:"session_token,omitempty"`
	jwt.RegisteredClaims
}

// IsGuest reports whether the claims belong to an anonymous session.
func (c *AccessTokenClaims) IsGuest() bool {
	return c.UserID == nil && c.SessionToken != ""
}
