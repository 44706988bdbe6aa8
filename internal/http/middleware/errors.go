// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the centralized error responder. Handlers and earlier
// stages never write error bodies themselves; they attach an error to the
// Gin context (c.Error) and abort. The responder runs after the rest of the
// chain and turns the last recorded error into a response.
//
// The responder has two states:
//
//   - pre-response: nothing has been written yet. The status is taken from a
//     typed *apperr.Error (500 otherwise) and the body shape depends on the
//     route version:
//     legacy    {"error": "<message>"}
//     versioned {"error": {"status": 404, "code": "NOT_FOUND", "message": "<message>"}}
//   - post-response: headers are already on the wire. Nothing is written;
//     the error stays in c.Errors so the access logger reports it.
//
// A handler name attached as gin.Error metadata (see handlers.Wrap) is
// included in the log line:
//
//	Error in <name> controller function: <message>
//
// Under RedactingLogger the logged message is scrubbed; the body never is.
package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-task-backend/internal/apperr"
)

// ErrorOptions configures ErrorResponder.
type ErrorOptions struct {
	// VersionPrefix marks versioned paths; anything else gets the legacy shape.
	VersionPrefix string
}

// ErrorResponder returns the stage that renders errors recorded by later stages.
// Install it before any stage that may record one.
func ErrorResponder(opts ErrorOptions) gin.HandlerFunc {
	prefix := opts.VersionPrefix
	if prefix == "" {
		prefix = DefaultVersionPrefix
	}
	return func(c *gin.Context) {
		c.Next()

		ge := c.Errors.Last()
		if ge == nil {
			return
		}
		RespondError(c, ge, prefix)
	}
}

// RespondError renders ge for the current request.
func RespondError(c *gin.Context, ge *gin.Error, versionPrefix string) {
	lg := LoggerFrom(c)
	handler := HandlerName(ge)

	if c.Writer.Written() {
		lg.Warn().
			Err(ge.Err).
			Str("handler", handler).
			Int("status", c.Writer.Status()).
			Msg("error after response started; not rewriting")
		return
	}

	status := apperr.StatusOf(ge.Err)
	message := apperr.MessageOf(ge.Err)
	code := apperr.CodeFor(status)

	logged := message
	if redacting(c) {
		logged = scrub(message)
	}
	line := "Error: " + logged
	if handler != "" {
		line = fmt.Sprintf("Error in %s controller function: %s", handler, logged)
	}
	ev := lg.Warn()
	if status >= http.StatusInternalServerError {
		ev = lg.Error()
	}
	ev.Int("status", status).Str("code", code).Str("handler", handler).Msg(line)
	apiErrors.WithLabelValues(strconv.Itoa(status), code).Inc()

	if IsVersionedPath(c.Request.URL.Path, versionPrefix) {
		c.AbortWithStatusJSON(status, apperr.NewBody(status, message))
		return
	}
	c.AbortWithStatusJSON(status, apperr.LegacyBody{Error: message})
}

// HandlerName returns the handler label attached to ge, if any.
func HandlerName(ge *gin.Error) string {
	if ge == nil {
		return ""
	}
	s, _ := ge.Meta.(string)
	return s
}

// IsVersionedPath reports whether path is served by the versioned API.
func IsVersionedPath(path, versionPrefix string) bool {
	if versionPrefix == "" {
		versionPrefix = DefaultVersionPrefix
	}
	return strings.HasPrefix(path, versionPrefix)
}
