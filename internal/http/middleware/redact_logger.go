// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// RedactingLogger is the access logger used when LOG_REDACT is on. It never
// logs bodies (task titles and descriptions stay out of the logs), masks
// credential headers and the Idempotency-Key, and pattern-scrubs emails,
// phone numbers and UUIDs from the query string and remaining headers.
//
// It also marks the request as redacted so ErrorResponder scrubs the messages
// it logs. The not-found message echoes the request URI, query included.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const ctxKeyRedact = "log_redact"

// UUIDs go first: the phone pattern would otherwise eat their digit runs.
var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// scrub replaces identifiers in s with typed placeholders.
func scrub(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// redacting reports whether RedactingLogger handled this request.
func redacting(c *gin.Context) bool {
	return c.GetBool(ctxKeyRedact)
}

// RedactOptions configures RedactingLogger.
//
// MaskHeaders adds header names (case-insensitive) whose values are replaced
// with "[REDACTED]", on top of Authorization, Cookie and Set-Cookie.
type RedactOptions struct {
	MaskHeaders []string
}

// RedactingLogger returns the scrubbing access logger. Severity follows the
// final status: INFO, WARN for 4xx, ERROR for 5xx.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	masked := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = scrub(c.Request.URL.Path)
		}

		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := masked[strings.ToLower(k)]; ok {
				headers[k] = "[REDACTED]"
				continue
			}
			headers[k] = scrub(strings.Join(vv, ", "))
		}

		reqID := c.Writer.Header().Get(requestIDHeader)
		if reqID == "" {
			reqID = c.GetHeader(requestIDHeader)
		}
		l := log.With().
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", scrub(c.Request.URL.RawQuery)).
			Logger()
		c.Set("logger", &l)
		c.Set(ctxKeyRedact, true)

		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		}
		ev.
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}
