// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates the caller supplied an invalid request.
var ErrValidation = errors.New("validation error")

// ErrNotInitialized indicates a component was used before setup completed.
// Unlike per-expert failures this is surfaced to the caller.
var ErrNotInitialized = errors.New("not initialized")
