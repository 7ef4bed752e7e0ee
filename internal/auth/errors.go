package auth

import "errors"

var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email address already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidOTP         = errors.New("invalid or expired code")
	ErrOTPLocked          = errors.New("too many attempts for this code")
	ErrUserNotFound       = errors.New("user not found")
	ErrInternal           = errors.New("internal error")
)
