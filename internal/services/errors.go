// Package services defines the business logic for tasks.
// This file centralizes service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrTaskNotFound indicates that no task matches the requested id, or that
	// a write against that id affected no rows.
	ErrTaskNotFound = errors.New("task not found")

	// ErrEmptyTask is returned when a create or update carries no fields.
	ErrEmptyTask = errors.New("task data is empty")
)
