package services

import "errors"

var (
	ErrUserNotFound       = errors.New("no account found with this email")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAddressNotFound    = errors.New("address not found")
	ErrFileNotFound       = errors.New("file not found")
	ErrNoOwner            = errors.New("an authenticated owner is required")
)
