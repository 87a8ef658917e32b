package model

import "errors"

// Error definitions for the model package.
var (
	ErrModelUnavailable = errors.New("model unavailable")
	ErrNotConfigured    = errors.New("model is not configured")
)
