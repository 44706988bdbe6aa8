// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the success response helpers and DTOs shared by the task
// endpoints. Error responses are never written here: handlers return a typed
// *apperr.Error (or any other error) and the centralized error responder in
// the middleware package renders it in the shape of the route's API version.
//
// Example success response:
//
//	HTTP/1.1 200 OK
//	{ "id": 1, "created": "2025-06-01T12:00:00Z", "title": "Buy milk",
//	  "description": null, "complete": false, "due": "2025-06-02T00:00:00Z" }
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MessageResponse is the body of a successful delete.
type MessageResponse struct {
	Message string `json:"message" example:"Task has been deleted."`
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// notModified writes an HTTP 304 with no body.
func notModified(c *gin.Context) {
	c.Status(http.StatusNotModified)
}
