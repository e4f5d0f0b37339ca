package models

import "errors"

var (
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrStreakUnavailable   = errors.New("streak unavailable")
	ErrAlreadyUpdatedToday = errors.New("streak already updated today")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrUnknownBadge        = errors.New("unknown badge")
)
