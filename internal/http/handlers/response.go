// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response envelopes used across all endpoints.
// Every response, success or failure, is wrapped in a JSON object with a
// boolean `success` discriminator so clients branch on one field.
//
// Conventions:
//   - Failures always go through respondError() (errors.go), which classifies
//     the error and logs it with request context. Handlers never hand-roll
//     failure JSON.
//   - okData()/createdData() wrap payloads; list endpoints add `count` so
//     clients can render totals without measuring the array.
//
// Example failure:
//
//	HTTP/1.1 404 Not Found
//	{ "success": false, "message": "The requested customer could not be found. ..." }
//
// Example success:
//
//	HTTP/1.1 200 OK
//	{ "success": true, "data": [ ... ], "count": 12 }
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SuccessResponse is the standard success envelope.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty" example:"Customer deleted successfully"`
	Data    any    `json:"data,omitempty"`
	// Count is the number of items in Data for list endpoints.
	Count *int64 `json:"count,omitempty"`
}

// ErrorResponse is the standard failure envelope.
//
// Error and Stack are populated only outside production so internal detail
// never leaks to real clients.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message" example:"Validation failed: email: must be a valid email address"`
	// Internal error text (non-production only)
	Error string `json:"error,omitempty"`
	// Handler stack trace (non-production only)
	Stack string `json:"stack,omitempty"`
}

// okData writes a 200 with the payload wrapped in the success envelope.
func okData(c *gin.Context, data any) {
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: data})
}

// okList writes a 200 list response with an explicit item count.
func okList(c *gin.Context, data any, count int64) {
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: data, Count: &count})
}

// createdData writes a 201 with the payload wrapped in the success envelope.
func createdData(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, SuccessResponse{Success: true, Message: message, Data: data})
}

// okMessage writes a 200 carrying only a confirmation message (deletes).
func okMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: message})
}

// Fail writes a failure envelope without classification. Router-level
// fallbacks (404/405) use it; handlers go through respondError instead.
func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Success: false, Message: message})
}
