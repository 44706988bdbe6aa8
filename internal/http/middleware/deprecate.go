// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the deprecation tagger mounted on the legacy
// (un-versioned) routes. Every response that passes through it carries:
//
//	Warning:                299 - "This endpoint is deprecated. Please use /api/v1 instead."
//	X-Deprecated:           true
//	X-Sunset-Date:          2025-10-31
//	X-Alternative-Endpoint: /api/v1<request path>
//
// StripDeprecation removes the same four headers again; the not-found
// fallback calls it for versioned paths.
package middleware

import (
	"github.com/gin-gonic/gin"
)

// Deprecation response headers.
const (
	HeaderWarning             = "Warning"
	HeaderDeprecated          = "X-Deprecated"
	HeaderSunsetDate          = "X-Sunset-Date"
	HeaderAlternativeEndpoint = "X-Alternative-Endpoint"
)

// Defaults for DeprecationOptions.
const (
	DefaultSunsetDate    = "2025-10-31"
	DefaultVersionPrefix = "/api/v1"
)

// DeprecationOptions configures Deprecate.
type DeprecationOptions struct {
	// Message is the warning text; defaults to a pointer at VersionPrefix.
	Message string
	// SunsetDate is the YYYY-MM-DD date after which legacy routes go away.
	SunsetDate string
	// VersionPrefix is prepended to the request path to name the replacement.
	VersionPrefix string
}

// Deprecate returns a stage that tags the response as deprecated and always
// continues the chain exactly once.
func Deprecate(opts DeprecationOptions) gin.HandlerFunc {
	prefix := opts.VersionPrefix
	if prefix == "" {
		prefix = DefaultVersionPrefix
	}
	sunset := opts.SunsetDate
	if sunset == "" {
		sunset = DefaultSunsetDate
	}
	msg := opts.Message
	if msg == "" {
		msg = "This endpoint is deprecated. Please use " + prefix + " instead."
	}
	warning := `299 - "` + msg + `"`

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set(HeaderWarning, warning)
		h.Set(HeaderDeprecated, "true")
		h.Set(HeaderSunsetDate, sunset)
		h.Set(HeaderAlternativeEndpoint, prefix+c.Request.URL.Path)
		c.Next()
	}
}

// StripDeprecation removes any deprecation headers already set on the response.
func StripDeprecation(c *gin.Context) {
	h := c.Writer.Header()
	h.Del(HeaderWarning)
	h.Del(HeaderDeprecated)
	h.Del(HeaderSunsetDate)
	h.Del(HeaderAlternativeEndpoint)
}
