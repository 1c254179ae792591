package services

import "errors"

// Sentinel errors returned by the auth and session services. Handlers
// branch on these with errors.Is and map them to wire codes; anything else
// is a store failure and surfaces as a 500.
var (
	ErrEmailExists         = errors.New("email already exists")
	ErrPasswordRequired    = errors.New("password required")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrRefreshTokenReuse   = errors.New("refresh token reuse detected")
	// ErrConcurrentRotation marks a refresh that lost a rotation race with
	// another request presenting the same secret. Not treated as theft.
	ErrConcurrentRotation  = errors.New("concurrent rotation")
	ErrSessionNotFound     = errors.New("session not found")
	ErrCannotRevokeCurrent = errors.New("cannot revoke current session")
	ErrUserNotFound        = errors.New("user not found")
	ErrDocumentNotFound    = errors.New("document not found")
)
