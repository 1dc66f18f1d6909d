package services

import "errors"

// Sentinel errors returned by the user service. Handlers branch on these
// with errors.Is to pick the right HTTP status; anything else is treated
// as an internal failure.
var (
	// ErrMissingCredentials is returned when email or password is absent.
	ErrMissingCredentials = errors.New("please provide email and password")

	// ErrDuplicateEmail is returned when registering an email that already exists.
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrInvalidCredentials is returned on login failure. It is deliberately
	// the same for an unknown email and a wrong password, so callers cannot
	// probe which emails are registered.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound is returned when a lookup matches no user.
	ErrUserNotFound = errors.New("user not found")
)

// ValidationError reports malformed input (bad email format, short password).
// The reason is safe to echo back to the client.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
