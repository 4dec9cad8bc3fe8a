// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates the write collided with an existing row.
var ErrConflict = errors.New("conflict: resource already exists")

// ErrValidation indicates a request failed domain validation.
// Wrapped errors carry the human-readable reason before the sentinel text.
var ErrValidation = errors.New("validation failed")
