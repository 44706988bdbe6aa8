// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the schema-validation stage placed in front of the
// create and update handlers. It decodes the JSON body, runs it through a
// validation.Schema, and stores the normalized fields in the Gin context for
// the handler (ValidatedTask).
//
// An empty body ("", whitespace, or {}) is passed through untouched so the
// handler can report its own "Task data is required" error. Validation
// failures become a 422 typed error: "Validation failed: <m1>, <m2>".
//
// When IdempotencyValidator has flagged a replay, a bad body does not abort:
// the stored result wins, and the error is parked for the handler
// (DeferredValidationError) in case the stored result is gone by then.
package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-task-backend/internal/apperr"
	"github.com/tbourn/go-task-backend/internal/validation"
)

const (
	ctxKeyTaskFields   = "task.fields"
	ctxKeyDeferredFail = "task.deferred_err"
)

// ValidatedTask returns the fields stored by Validate. ok is false when the
// body was empty or the stage did not run.
func ValidatedTask(c *gin.Context) (validation.TaskFields, bool) {
	v, ok := c.Get(ctxKeyTaskFields)
	if !ok {
		return validation.TaskFields{}, false
	}
	f, ok := v.(validation.TaskFields)
	return f, ok
}

// DeferredValidationError returns the body error Validate parked for a
// replayed request, or nil.
func DeferredValidationError(c *gin.Context) error {
	v, ok := c.Get(ctxKeyDeferredFail)
	if !ok {
		return nil
	}
	err, _ := v.(error)
	return err
}

// Validate returns a stage that validates the request body against schema.
func Validate(schema validation.Schema) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				_ = c.Error(apperr.New("Request body too large", http.StatusRequestEntityTooLarge))
			} else {
				_ = c.Error(apperr.BadRequest("Could not read request body"))
			}
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))

		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 {
			c.Next()
			return
		}

		reject := func(err *apperr.Error) {
			if IsReplay(c) {
				c.Set(ctxKeyDeferredFail, err)
				c.Next()
				return
			}
			_ = c.Error(err)
			c.Abort()
		}

		var body any
		if err := json.Unmarshal(trimmed, &body); err != nil {
			reject(apperr.BadRequest("Malformed JSON body"))
			return
		}
		if m, ok := body.(map[string]any); ok && len(m) == 0 {
			c.Next()
			return
		}

		res := schema.Validate(body)
		if !res.OK() {
			LoggerFrom(c).Debug().Interface("issues", res.Issues).Msg("validation failed")
			reject(apperr.Unprocessable(res.Err().Error()))
			return
		}

		c.Set(ctxKeyTaskFields, res.Value)
		c.Next()
	}
}
