package auth

import "errors"

var (
	ErrEmailTaken       = errors.New("email already registered")
	ErrUserNotFound     = errors.New("user not found")
	ErrResetTokenInvalid = errors.New("reset token invalid or expired")
)
