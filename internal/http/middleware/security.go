package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures the headers emitted by SecurityHeaders.
//
// HSTS is only sent for requests that arrived over HTTPS, directly or via a
// proxy that set X-Forwarded-Proto. HSTSMaxAge defaults to 180 days.
type SecurityOptions struct {
	EnableHSTS       bool
	HSTSMaxAge       time.Duration
	NoStoreMutations bool     // Cache-Control: no-store on POST/PATCH/DELETE
	EnablePolicy     bool     // Permissions-Policy and cross-domain policy
	Expose           []string // merged into Access-Control-Expose-Headers
}

// SecurityHeaders returns middleware that hardens every task API response.
//
// Baseline headers (nosniff, DENY framing, no-referrer) are always set. Task
// reads stay cacheable so the list ETag can revalidate; writes are marked
// no-store when NoStoreMutations is on. Names in Expose are appended to
// Access-Control-Expose-Headers without duplicating entries already present.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	hsts := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}
		if opt.NoStoreMutations && isMutation(c.Request.Method) {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		if len(opt.Expose) > 0 {
			mergeExpose(h, opt.Expose)
		}

		c.Next()
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// mergeExpose appends names to Access-Control-Expose-Headers, skipping any
// already listed (case-insensitive).
func mergeExpose(h http.Header, names []string) {
	const hdr = "Access-Control-Expose-Headers"
	cur := h.Get(hdr)
	have := map[string]struct{}{}
	for _, p := range strings.Split(cur, ",") {
		if p = strings.TrimSpace(p); p != "" {
			have[strings.ToLower(p)] = struct{}{}
		}
	}
	out := cur
	for _, n := range names {
		if _, ok := have[strings.ToLower(n)]; ok {
			continue
		}
		have[strings.ToLower(n)] = struct{}{}
		if out == "" {
			out = n
		} else {
			out += ", " + n
		}
	}
	if out != "" {
		h.Set(hdr, out)
	}
}

// isHTTPS reports whether the request used TLS directly or via a proxy that
// set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
