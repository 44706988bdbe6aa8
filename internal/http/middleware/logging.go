// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// Access logging, panic recovery and correlation IDs:
//
//   - RequestID reuses a sane inbound X-Request-ID or mints a UUID, and
//     echoes it on the response.
//   - Logger writes one zerolog line per request after the chain finishes,
//     at info, warn (4xx) or error (5xx, or an error recorded after a
//     successful response started). It also attaches a request-scoped
//     logger that LoggerFrom hands to handlers and ErrorResponder.
//   - Recovery turns a panic into a recorded 500 for ErrorResponder.
//
// Suggested order: RequestID, Logger (or RedactingLogger), ErrorResponder,
// Recovery.
package middleware

import (
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-task-backend/internal/apperr"
)

// MsgInternal is the client-facing message for recovered panics.
const MsgInternal = "Internal server error"

const (
	requestIDKey      = "requestID"
	requestIDHeader   = "X-Request-ID"
	maxRequestIDLen   = 128
	maxQueryLogLength = 2048
)

// RequestID attaches a correlation ID to the request context and response.
// Inbound IDs longer than 128 bytes or containing non-printable characters
// are replaced so they cannot corrupt log lines.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

func validRequestID(s string) bool {
	if s == "" || len(s) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x21 || s[i] > 0x7e {
			return false
		}
	}
	return true
}

// Logger is the plain access logger. Besides the request metadata it reports
// the handler name of the last recorded error and whether the response went
// out through a deprecated route.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		l := log.With().
			Str("request_id", asString(c.Value(requestIDKey))).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("query", truncate(c.Request.URL.RawQuery, maxQueryLogLength)).
			Int64("bytes_in", c.Request.ContentLength). // -1 when unknown
			Logger()
		c.Set("logger", &l)

		c.Next()

		status := c.Writer.Status()
		ctx := l.With().
			Int("status", status).
			Dur("latency", time.Since(start)).
			Int("bytes_out", c.Writer.Size())
		if c.Writer.Header().Get(HeaderDeprecated) == "true" {
			ctx = ctx.Bool("deprecated", true)
		}
		if len(c.Errors) > 0 {
			ctx = ctx.Str("errors", c.Errors.String())
			if h := HandlerName(c.Errors.Last()); h != "" {
				ctx = ctx.Str("handler", h)
			}
		}
		out := ctx.Logger()

		switch {
		case status >= 500:
			out.Error().Msg("request")
		case status >= 400:
			out.Warn().Msg("request")
		case len(c.Errors) > 0:
			out.Error().Msg("request")
		default:
			out.Info().Msg("request")
		}
	}
}

// Recovery logs a panic with its stack and records a 500 typed error. A
// response that already started is left alone; ErrorResponder only logs it.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				LoggerFrom(c).Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("request_id", asString(c.Value(requestIDKey))).
					Msg("panic recovered")

				_ = c.Error(apperr.Internal(MsgInternal))
				c.Abort()
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, or a plain one when no access
// logger ran. Never nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if lg, ok := c.Value("logger").(*zerolog.Logger); ok {
		return lg
	}
	l := log.With().Logger()
	return &l
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// truncate cuts s to max bytes plus an ellipsis; max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
