package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerFunc is a Gin handler that reports failure by returning an error
// instead of writing an error response.
type HandlerFunc func(c *gin.Context) error

// Wrap adapts fn to a gin.HandlerFunc. When fn returns an error, Wrap records
// it on the context, tagged with name when one is given, and aborts the
// chain; the error responder renders it. A nil return has no side effect
// beyond what fn wrote.
func Wrap(fn HandlerFunc, name ...string) gin.HandlerFunc {
	var label string
	if len(name) > 0 {
		label = name[0]
	}
	return func(c *gin.Context) {
		err := fn(c)
		if err == nil {
			return
		}
		ge := c.Error(err)
		if label != "" {
			ge.SetMeta(label)
		}
		c.Abort()
	}
}
