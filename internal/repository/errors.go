// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver-specific errors. Security-sensitive sentinels are
// deliberately coarse: ErrInvalidCredentials covers both unknown email
// and wrong password, and ErrResetTokenInvalid covers missing, expired
// and already-consumed tokens, so responses cannot leak account or
// token state.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidCredentials is returned by Authenticate for any failure
// cause: unknown email, deactivated account or password mismatch.
// Handlers should translate this into an HTTP 401 response with a
// uniform message.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrResetTokenInvalid is returned when a password reset token does not
// exist, has expired, or has already been consumed. The three cases are
// indistinguishable on purpose; handlers should translate this into an
// HTTP 404 response reading "token not found or expired".
var ErrResetTokenInvalid = errors.New("reset token not found or expired")
