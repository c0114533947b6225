// Package apperrors defines the sentinel errors shared across the client.
package apperrors

import "errors"

var (
	// ErrNotAuthenticated is returned when an operation needs an
	// established session and none exists.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNoRefreshToken is returned when a refresh is attempted with no
	// refresh token available.
	ErrNoRefreshToken = errors.New("no refresh token available")
)
