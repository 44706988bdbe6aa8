package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func securityRouter(opt SecurityOptions, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(pre...)
	r.Use(SecurityHeaders(opt))
	r.GET("/tasks", func(c *gin.Context) { c.JSON(http.StatusOK, []any{}) })
	r.POST("/tasks", func(c *gin.Context) { c.JSON(http.StatusCreated, gin.H{"id": 1}) })
	r.DELETE("/tasks/:id", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "ok"}) })
	return r
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	r := securityRouter(SecurityOptions{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks", nil))

	h := w.Header()
	if h.Get("X-Content-Type-Options") != "nosniff" ||
		h.Get("X-Frame-Options") != "DENY" ||
		h.Get("Referrer-Policy") != "no-referrer" {
		t.Fatalf("baseline headers missing: %#v", h)
	}
	for _, k := range []string{"Permissions-Policy", "Cache-Control", "Strict-Transport-Security", "Access-Control-Expose-Headers"} {
		if h.Get(k) != "" {
			t.Fatalf("unexpected %s: %q", k, h.Get(k))
		}
	}
}

func TestSecurityHeaders_NoStoreOnlyForMutations(t *testing.T) {
	r := securityRouter(SecurityOptions{NoStoreMutations: true})

	cases := []struct {
		method, path string
		noStore      bool
	}{
		{http.MethodGet, "/tasks", false},
		{http.MethodPost, "/tasks", true},
		{http.MethodDelete, "/tasks/1", true},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		got := w.Header().Get("Cache-Control") == "no-store"
		if got != tc.noStore {
			t.Fatalf("%s %s: no-store=%v, want %v", tc.method, tc.path, got, tc.noStore)
		}
	}
}

func TestSecurityHeaders_ExposeMerge(t *testing.T) {
	pre := func(c *gin.Context) {
		c.Header("Access-Control-Expose-Headers", "ETag, x-request-id")
		c.Next()
	}
	r := securityRouter(SecurityOptions{Expose: []string{"X-Request-ID", HeaderIdempotencyReplayed, HeaderDeprecated}}, pre)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks", nil))

	want := "ETag, x-request-id, " + HeaderIdempotencyReplayed + ", " + HeaderDeprecated
	if got := w.Header().Get("Access-Control-Expose-Headers"); got != want {
		t.Fatalf("expose = %q, want %q", got, want)
	}
}

func TestSecurityHeaders_PolicyAndHSTS(t *testing.T) {
	r := securityRouter(SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour, EnablePolicy: true})

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.TLS = &tls.ConnectionState{}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	h := w.Header()
	if h.Get("X-Permitted-Cross-Domain-Policies") != "none" || h.Get("Permissions-Policy") == "" {
		t.Fatalf("policy headers missing: %#v", h)
	}
	if got := h.Get("Strict-Transport-Security"); got != "max-age=86400; includeSubDomains; preload" {
		t.Fatalf("HSTS = %q", got)
	}

	// Plain HTTP never gets HSTS.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks", nil))
	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("HSTS over http: %q", got)
	}
}

func TestSecurityHeaders_DefaultHSTSAge(t *testing.T) {
	r := securityRouter(SecurityOptions{EnableHSTS: true})

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("X-Forwarded-Proto", "HTTPS")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Strict-Transport-Security"); got != "max-age=15552000; includeSubDomains; preload" {
		t.Fatalf("HSTS = %q", got)
	}
}

func Test_isHTTPS(t *testing.T) {
	plain := httptest.NewRequest(http.MethodGet, "/", nil)
	if isHTTPS(plain) {
		t.Fatal("plain HTTP reported as https")
	}
	withTLS := httptest.NewRequest(http.MethodGet, "/", nil)
	withTLS.TLS = &tls.ConnectionState{}
	if !isHTTPS(withTLS) {
		t.Fatal("TLS request not https")
	}
	proxied := httptest.NewRequest(http.MethodGet, "/", nil)
	proxied.Header.Set("X-Forwarded-Proto", "https")
	if !isHTTPS(proxied) {
		t.Fatal("forwarded https not detected")
	}
}
