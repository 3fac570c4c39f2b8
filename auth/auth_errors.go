package auth

import "errors"

var (
	AuthInFlightErr     = errors.New("authentication already in flight")
	NotSignedInErr      = errors.New("not signed in")
	AlreadySignedInErr  = errors.New("already signed in")
	EmailRequiredErr    = errors.New("email is required")
	PasswordRequiredErr = errors.New("password is required")
)
