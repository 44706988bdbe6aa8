package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-task-backend/internal/apperr"
	"github.com/tbourn/go-task-backend/internal/http/middleware"
)

// NotFound is the terminal fallback for requests no route matched. It records
// a 404 naming the full request URI. On versioned paths it first removes any
// deprecation headers an earlier stage may have set.
func NotFound(versionPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if middleware.IsVersionedPath(c.Request.URL.Path, versionPrefix) {
			middleware.StripDeprecation(c)
		}
		_ = c.Error(apperr.NotFound(fmt.Sprintf("The API route %s does not exist", c.Request.URL.RequestURI())))
		c.Abort()
	}
}
