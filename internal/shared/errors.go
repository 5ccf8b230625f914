package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication and token lifecycle errors
	ErrAuthFailed         = fmt.Errorf("authentication failed")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrDecryptFailed      = fmt.Errorf("refresh token could not be decrypted")
	ErrRefreshUnavailable = fmt.Errorf("no usable refresh token")
	ErrRefreshFailed      = fmt.Errorf("token refresh failed")
	ErrStateInvalid       = fmt.Errorf("oauth state invalid or expired")

	// Domain errors
	ErrEventNotFound   = fmt.Errorf("event not found")
	ErrWishNotFound    = fmt.Errorf("wish not found")
	ErrDuplicateWish   = fmt.Errorf("song already requested for this event")
	ErrUserNotFound    = fmt.Errorf("user not found")
	ErrPremiumRequired = fmt.Errorf("spotify premium required")
	ErrNoActiveDevice  = fmt.Errorf("no active spotify player")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
