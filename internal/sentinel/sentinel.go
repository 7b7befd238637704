package sentinel

import "errors"

// Sentinel dependency errors. Stores return these (optionally wrapped) so
// handlers can translate them into user-facing behavior exactly once.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)
