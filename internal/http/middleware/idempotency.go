// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for task creation. It validates an
// Idempotency-Key request header on POST requests, optionally performs a
// lookup to detect previously completed requests, and annotates the request
// context so downstream handlers can:
//   - read the normalized key (GetIdempotencyKey)
//   - detect replayed requests (IsReplay)
//   - bypass rate limiting when a replay is served (via an internal flag)
//
// Persistence stays behind the narrow IdempotencyLookup function type.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-task-backend/internal/apperr"
)

// HeaderIdempotencyKey is the request header that clients use to convey an
// idempotency key for task creation.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotencyReplayed is set on responses served from a stored result.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

// Context keys used internally to stash idempotency state.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // bool: true when a stored replay exists
	ctxKeyRateBypass = "rate.bypass" // bool: true to skip rate limiting
)

// GetIdempotencyKey returns the validated idempotency key stored in the Gin
// context by IdempotencyValidator. The second return value indicates presence.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the lookup found a stored result for this key.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures header validation for IdempotencyValidator.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. If nil, a token pattern is used:
	// ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
}

// IdempotencyLookup answers whether a still-valid result exists for key at
// the given time. TTL enforcement belongs to the implementation. Errors are
// treated as a miss.
type IdempotencyLookup func(ctx context.Context, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header of POST requests,
// stashes it in the request context, and consults lookup for a prior result.
//
// Behavior:
//   - Other methods, or no header: no-op.
//   - Header fails validation: records a 400 typed error and aborts.
//   - Lookup reports a stored result: sets replay and rate-bypass flags.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			_ = c.Error(apperr.BadRequest("Invalid Idempotency-Key header"))
			c.Abort()
			return
		}

		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			if exists, _ := lookup(c.Request.Context(), key, time.Now().UTC()); exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}
