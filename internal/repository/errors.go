// Package repository defines error values that are reused across
// multiple repositories. These sentinels let higher layers such as
// handlers and the inventory engine distinguish failure scenarios
// without inspecting raw SQL errors.
package repository

import "errors"

// ErrConflict is returned when an update cannot be performed because
// of conflicting state, such as attempting to confirm a hold whose
// seats were already reclaimed. Handlers should translate this into
// an HTTP 409 response.
var ErrConflict = errors.New("conflict")
