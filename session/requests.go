package session

import (
	"github.com/fleetwatch/go-fleet-client/identity"
)

// Credentials is the login request payload.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// ChangePasswordRequest is the change-password payload.
type ChangePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

// Result is the user-facing outcome of login, register, and password
// operations. Message carries the backend-supplied text when available, a
// generic fallback otherwise.
type Result struct {
	OK      bool
	Message string
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// authResponse is the shape every /Auth endpoint answers with. AccessToken
// and Token are interchangeable aliases; User may be omitted.
type authResponse struct {
	User                   *apiUser `json:"user"`
	AccessToken            string   `json:"accessToken"`
	Token                  string   `json:"token"`
	RefreshToken           string   `json:"refreshToken"`
	RefreshTokenExpiration string   `json:"refreshTokenExpiration"`
}

// access returns whichever access-token alias the backend populated.
func (r *authResponse) access() string {
	if r.AccessToken != "" {
		return r.AccessToken
	}
	return r.Token
}

// apiUser is the backend's user schema.
type apiUser struct {
	ID          string                `json:"id"`
	FirstName   string                `json:"firstName"`
	LastName    string                `json:"lastName"`
	UserName    string                `json:"userName"`
	Email       string                `json:"email"`
	Role        string                `json:"role"`
	IsActive    *bool                 `json:"isActive"`
	DriverID    *string               `json:"driverId"`
	Permissions *identity.Permissions `json:"permissions"`
}

// toSessionUser maps the backend schema to the local identity. Permissions
// come from the canonical role's default table unless the backend carries an
// administrator override.
func (u *apiUser) toSessionUser() *identity.SessionUser {
	role, ok := identity.NormalizeRole(u.Role)
	if !ok {
		role = identity.RoleDriver
	}
	permissions := identity.DefaultPermissions(role)
	if u.Permissions != nil {
		permissions = *u.Permissions
	}
	return &identity.SessionUser{
		ID:          u.ID,
		DisplayName: u.FirstName,
		FamilyName:  u.LastName,
		Username:    u.UserName,
		Email:       u.Email,
		Role:        role,
		Permissions: permissions,
		IsActive:    u.IsActive,
		DriverID:    u.DriverID,
	}
}
