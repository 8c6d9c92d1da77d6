package domain

import "errors"

var (
	// ErrValidation marks missing or malformed caller input.
	ErrValidation = errors.New("validation failed")

	ErrNotFound = errors.New("short URL not found")

	// ErrExpired is returned once for a stale code; the record is gone afterwards.
	ErrExpired = errors.New("short URL expired")

	// ErrCodeTaken is only returned when collision checks are enabled.
	ErrCodeTaken = errors.New("short code already in use")

	ErrInternal = errors.New("internal error")
)
