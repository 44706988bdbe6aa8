// Package handlers defines the client-facing messages raised by the task
// endpoints. Status codes travel on the typed error (see package apperr);
// the symbolic code of the versioned error body is derived from the status.
package handlers

const (
	MsgTaskNotFound     = "Task not found"
	MsgTaskDataRequired = "Task data is required"
	MsgTaskDeleted      = "Task has been deleted."
)
