package user

import "errors"

// Sentinel errors for the user service layer.
var (
	// ErrEmailExists is returned by signup when the email is already
	// registered. Handlers map it to a 409.
	ErrEmailExists = errors.New("email exists")

	// ErrInvalidCredentials covers both unknown email and wrong password
	// on login. Handlers map it to a 401.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
