// Package apperr holds the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")

	// ErrInvalidConfiguration marks configuration the service refuses to run with,
	// such as status weights that sum to zero.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
