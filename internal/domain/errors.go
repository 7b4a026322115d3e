package domain

import "errors"

// Sentinel errors wrapped by the domain and mapped to transport codes at the edge.
var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrStateConflict = errors.New("state conflict")
)
