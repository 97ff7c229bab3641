package auth

import (
	"github.com/karimsaleh/freshbasket-backend/internal/users"
)

// LoginRequest captures the credentials sent to the login endpoint.
// Phone is the login identifier; SessionToken, when present, names the
// guest cart to merge onto the account.
type LoginRequest struct {
	Phone        string `json:"phone" validate:"required"`
	Password     string `json:"password" validate:"required"`
	SessionToken string `json:"session_token,omitempty"`
}

// LoginResponse contains the token and user produced by a successful login.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	User        *users.UserDTO `json:"user"`
}

// GuestSessionResponse carries the anonymous token that scopes a
// guest's redis cart until they log in or check out.
type GuestSessionResponse struct {
	AccessToken  string `json:"access_token"`
	SessionToken string `json:"session_token"`
}
