package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
)

// Envelope is the response contract shared by every endpoint. Exactly
// one of Data or Error is set.
type Envelope struct {
	Data  interface{}      `json:"data,omitempty"`
	Error *appErrors.Error `json:"error,omitempty"`
	Meta  *ListMeta        `json:"meta,omitempty"`
}

// ListMeta carries collection metadata for list endpoints.
type ListMeta struct {
	Count int `json:"count"`
}

// JSON sends a success envelope. meta may be nil for single records.
func JSON(c *gin.Context, status int, data interface{}, meta *ListMeta) {
	noStore(c)
	c.JSON(status, Envelope{Data: data, Meta: meta})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error normalizes err into the envelope's error shape and writes it
// with the mapped HTTP status.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	noStore(c)
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// responses carry role-scoped data, so intermediaries must not cache them
func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
