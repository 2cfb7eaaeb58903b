package entity

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrOutputNotFound  = errors.New("download not found or expired")
	ErrInvalidSize     = errors.New("invalid draw size")
	ErrNotConfirmed    = errors.New("exit must be confirmed")
)
